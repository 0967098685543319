package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/DeusData/codegraph/internal/graph"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleDoc(method string) *graph.Document {
	file := graph.Endpoint{ID: "a.py", Label: graph.LabelFile}
	class := graph.Endpoint{ID: "a.py::Foo", Label: graph.LabelClass}
	fn := graph.Endpoint{ID: "a.py::Foo::" + method, Label: graph.LabelFunction}
	doc := &graph.Document{
		TotalFiles:     1,
		TotalLines:     3,
		TotalSizeBytes: 30,
		ProcessedFiles: []string{"a.py"},
		Nodes: []graph.Node{
			{ID: file.ID, Label: file.Label, Properties: map[string]any{"path": "a.py", "name": "a.py", "content_hash": "abc"}},
			{ID: class.ID, Label: class.Label, Properties: map[string]any{"name": "Foo", "full_name": "Foo", "file": "a.py"}},
			{ID: fn.ID, Label: fn.Label, Properties: map[string]any{"name": method, "full_name": "Foo." + method, "file": "a.py", "is_method": true}},
		},
		Relationships: []graph.Relationship{
			{Source: file, Target: class, Type: graph.RelContains, Properties: map[string]any{}},
			{Source: class, Target: fn, Type: graph.RelContains, Properties: map[string]any{}},
		},
	}
	doc.NodeCount = len(doc.Nodes)
	doc.RelationshipCount = len(doc.Relationships)
	return doc
}

func nodeIDs(doc *graph.Document) []string {
	ids := make([]string, len(doc.Nodes))
	for i, n := range doc.Nodes {
		ids[i] = n.ID
	}
	return ids
}

func TestOpenMemory(t *testing.T) {
	s, err := Open(MemoryPath)
	if err != nil {
		t.Fatalf("Open(%s): %v", MemoryPath, err)
	}
	defer s.Close()
	if s.Path() != MemoryPath {
		t.Errorf("Path() = %q", s.Path())
	}
	if _, err := os.Stat(MemoryPath); !os.IsNotExist(err) {
		t.Errorf("in-memory open created a file: %v", err)
	}
	if err := s.UpsertProject(&Project{Name: "p", RootPath: "/"}); err != nil {
		t.Fatalf("UpsertProject: %v", err)
	}
}

func TestNodeUpsert(t *testing.T) {
	s := openTest(t)

	if err := s.UpsertProject(&Project{Name: "test", RootPath: "/tmp/test"}); err != nil {
		t.Fatalf("UpsertProject: %v", err)
	}

	n := &Node{
		Project:    "test",
		NodeID:     "a.py::Foo",
		Label:      "Class",
		Name:       "Foo",
		FilePath:   "a.py",
		Properties: map[string]any{"full_name": "Foo"},
	}
	if err := s.UpsertNodeBatch([]*Node{n}); err != nil {
		t.Fatalf("UpsertNodeBatch: %v", err)
	}
	first, err := s.FindNode("test", "a.py::Foo")
	if err != nil || first == nil {
		t.Fatalf("FindNode: %v %v", first, err)
	}

	n.Properties = map[string]any{"full_name": "Foo", "extra": "yes"}
	if err := s.UpsertNodeBatch([]*Node{n}); err != nil {
		t.Fatalf("UpsertNodeBatch again: %v", err)
	}

	count, err := s.CountNodes("test")
	if err != nil {
		t.Fatalf("CountNodes: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 node after dedup, got %d", count)
	}

	found, err := s.FindNode("test", "a.py::Foo")
	if err != nil {
		t.Fatalf("FindNode: %v", err)
	}
	if found.ID != first.ID {
		t.Errorf("row id changed on upsert: %d -> %d", first.ID, found.ID)
	}
	if found.Properties["extra"] != "yes" {
		t.Errorf("properties not refreshed: %v", found.Properties)
	}

	missing, err := s.FindNode("test", "nope")
	if err != nil || missing != nil {
		t.Errorf("FindNode(nope) = %v, %v; want nil, nil", missing, err)
	}
}

func TestEdgeUpsertDedup(t *testing.T) {
	s := openTest(t)
	if err := s.UpsertProject(&Project{Name: "p", RootPath: "/"}); err != nil {
		t.Fatal(err)
	}

	e := &Edge{Project: "p", SourceID: "b.py", SourceLabel: "File", TargetID: "a.py", TargetLabel: "File", Type: "IMPORTS"}
	for i := 0; i < 3; i++ {
		e.Properties = map[string]any{"round": i}
		if err := s.UpsertEdgeBatch([]*Edge{e}); err != nil {
			t.Fatalf("UpsertEdgeBatch: %v", err)
		}
	}
	count, err := s.CountEdges("p")
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 edge, got %d", count)
	}

	edges, err := s.FindEdgesBySource("p", "b.py")
	if err != nil || len(edges) != 1 {
		t.Fatalf("FindEdgesBySource: %v %v", edges, err)
	}
	if fmt.Sprint(edges[0].Properties["round"]) != "2" {
		t.Errorf("expected latest properties, got %v", edges[0].Properties)
	}

	in, err := s.FindEdgesByTarget("p", "a.py")
	if err != nil || len(in) != 1 {
		t.Errorf("FindEdgesByTarget: %v %v", in, err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openTest(t)
	doc := sampleDoc("bar")

	if err := s.Save("proj", "/src/proj", doc); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := s.Load("proj")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.NodeCount != 3 || loaded.RelationshipCount != 2 {
		t.Errorf("counts = %d/%d, want 3/2", loaded.NodeCount, loaded.RelationshipCount)
	}
	if loaded.TotalFiles != 1 || loaded.TotalLines != 3 || loaded.TotalSizeBytes != 30 {
		t.Errorf("totals not restored: %+v", loaded)
	}
	if got := nodeIDs(loaded); fmt.Sprint(got) != fmt.Sprint(nodeIDs(doc)) {
		t.Errorf("node order = %v", got)
	}
	if loaded.Nodes[2].Properties["is_method"] != true {
		t.Errorf("properties lost: %v", loaded.Nodes[2].Properties)
	}
	if loaded.Relationships[1].Target.Label != graph.LabelFunction {
		t.Errorf("relationship labels lost: %+v", loaded.Relationships[1])
	}

	hashes, err := s.GetProcessedFiles("proj")
	if err != nil {
		t.Fatal(err)
	}
	if hashes["a.py"] != "abc" {
		t.Errorf("processed file hash = %q", hashes["a.py"])
	}

	p, err := s.GetProject("proj")
	if err != nil {
		t.Fatal(err)
	}
	if p.RootPath != "/src/proj" || p.IndexedAt == "" {
		t.Errorf("project = %+v", p)
	}
}

func TestSaveMatchesMerge(t *testing.T) {
	s := openTest(t)
	first, second := sampleDoc("bar"), sampleDoc("baz")

	for _, doc := range []*graph.Document{first, second, second} {
		if err := s.Save("proj", "/src", doc); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	loaded, err := s.Load("proj")
	if err != nil {
		t.Fatal(err)
	}

	want := graph.Merge(first, second)
	if fmt.Sprint(nodeIDs(loaded)) != fmt.Sprint(nodeIDs(want)) {
		t.Errorf("nodes = %v, want %v", nodeIDs(loaded), nodeIDs(want))
	}
	if len(loaded.Relationships) != len(want.Relationships) {
		t.Fatalf("relationships = %d, want %d", len(loaded.Relationships), len(want.Relationships))
	}
	for i, r := range want.Relationships {
		if loaded.Relationships[i].Key() != r.Key() {
			t.Errorf("relationship %d = %v, want %v", i, loaded.Relationships[i].Key(), r.Key())
		}
	}
	if !hasRelationship(loaded, graph.RelKey{SourceID: "a.py::Foo", TargetID: "a.py::Foo::bar", Type: graph.RelContains}) {
		t.Error("stale relationship should persist")
	}
}

func TestLoadUnknownProject(t *testing.T) {
	s := openTest(t)
	doc, err := s.Load("ghost")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(doc.Nodes) != 0 || doc.ProcessedFiles == nil {
		t.Errorf("expected empty document, got %+v", doc)
	}

	_, err = s.GetProject("ghost")
	if !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestDeleteProjectCascade(t *testing.T) {
	s := openTest(t)
	if err := s.Save("proj", "/src", sampleDoc("bar")); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteProject("proj"); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	nodes, _ := s.CountNodes("proj")
	edges, _ := s.CountEdges("proj")
	if nodes != 0 || edges != 0 {
		t.Errorf("expected cascade delete, got %d nodes %d edges", nodes, edges)
	}
	projects, err := s.ListProjects()
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 0 {
		t.Errorf("expected no projects, got %v", projects)
	}
}

func TestWithTransactionRollback(t *testing.T) {
	s := openTest(t)
	boom := errors.New("boom")
	err := s.WithTransaction(func(tx *Store) error {
		if err := tx.UpsertProject(&Project{Name: "p", RootPath: "/"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := s.GetProject("p"); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("project should be rolled back, got %v", err)
	}
}

func TestBatchAcrossChunks(t *testing.T) {
	s := openTest(t)
	if err := s.UpsertProject(&Project{Name: "p", RootPath: "/"}); err != nil {
		t.Fatal(err)
	}

	const n = 400
	nodes := make([]*Node, n)
	edges := make([]*Edge, n)
	for i := range nodes {
		id := fmt.Sprintf("f.py::v%03d", i)
		nodes[i] = &Node{Project: "p", NodeID: id, Label: "Variable", Name: fmt.Sprintf("v%03d", i), FilePath: "f.py"}
		edges[i] = &Edge{Project: "p", SourceID: "f.py", SourceLabel: "File", TargetID: id, TargetLabel: "Variable", Type: "CONTAINS"}
	}
	if err := s.UpsertNodeBatch(nodes); err != nil {
		t.Fatalf("UpsertNodeBatch: %v", err)
	}
	if err := s.UpsertEdgeBatch(edges); err != nil {
		t.Fatalf("UpsertEdgeBatch: %v", err)
	}

	count, _ := s.CountNodes("p")
	if count != n {
		t.Errorf("nodes = %d, want %d", count, n)
	}
	count, _ = s.CountEdges("p")
	if count != n {
		t.Errorf("edges = %d, want %d", count, n)
	}
	vars, err := s.FindNodesByLabel("p", "Variable", 10)
	if err != nil || len(vars) != 10 || vars[0].NodeID != "f.py::v000" {
		t.Errorf("FindNodesByLabel: %d %v", len(vars), err)
	}
	inFile, err := s.FindNodesByFile("p", "f.py")
	if err != nil || len(inFile) != n {
		t.Errorf("FindNodesByFile: %d %v", len(inFile), err)
	}
}

func TestGetSchema(t *testing.T) {
	s := openTest(t)
	if err := s.Save("proj", "/src", sampleDoc("bar")); err != nil {
		t.Fatal(err)
	}
	info, err := s.GetSchema("proj")
	if err != nil {
		t.Fatalf("GetSchema: %v", err)
	}
	if len(info.NodeLabels) != 3 {
		t.Errorf("labels = %v", info.NodeLabels)
	}
	if len(info.RelationshipTypes) != 1 || info.RelationshipTypes[0].Count != 2 {
		t.Errorf("types = %v", info.RelationshipTypes)
	}
	want := map[string]bool{
		"(:File)-[:CONTAINS]->(:Class)  [1x]":     true,
		"(:Class)-[:CONTAINS]->(:Function)  [1x]": true,
	}
	for _, p := range info.RelationshipPatterns {
		if !want[p] {
			t.Errorf("unexpected pattern %q", p)
		}
	}
	if len(info.SampleFunctionNames) != 1 || info.SampleFunctionNames[0] != "bar" {
		t.Errorf("function samples = %v", info.SampleFunctionNames)
	}
	if len(info.SampleNodeIDs) != 3 {
		t.Errorf("id samples = %v", info.SampleNodeIDs)
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "graph.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Save("proj", "/src", sampleDoc("bar")); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if s.Path() != path {
		t.Errorf("Path() = %q", s.Path())
	}
	doc, err := s.Load("proj")
	if err != nil {
		t.Fatal(err)
	}
	if doc.NodeCount != 3 {
		t.Errorf("node count after reopen = %d", doc.NodeCount)
	}
}

func hasRelationship(d *graph.Document, k graph.RelKey) bool {
	for _, r := range d.Relationships {
		if r.Key() == k {
			return true
		}
	}
	return false
}
