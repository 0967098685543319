package syntax

// Role names a structural slot of a node, such as a class's name or a
// function's body.
type Role uint8

const (
	RoleName Role = iota
	RoleBody
	RoleParameters
	RoleLeft
	RoleDefinition
)

func (r Role) String() string {
	switch r {
	case RoleName:
		return "name"
	case RoleBody:
		return "body"
	case RoleParameters:
		return "parameters"
	case RoleLeft:
		return "left"
	case RoleDefinition:
		return "definition"
	}
	return "unknown"
}

// slot describes where a role lives among a node's children: the first child
// whose kind is in kinds, or the first child of any kind when kinds is empty.
type slot struct {
	role  Role
	kinds []Kind
}

// schema lists the roles each node kind is expected to carry.
var schema = map[Kind][]slot{
	KindClass: {
		{role: RoleName, kinds: []Kind{KindIdentifier}},
		{role: RoleBody, kinds: []Kind{KindBlock}},
	},
	KindFunction: {
		{role: RoleName, kinds: []Kind{KindIdentifier}},
		{role: RoleParameters, kinds: []Kind{KindParameters}},
		{role: RoleBody, kinds: []Kind{KindBlock}},
	},
	KindAssignment: {
		{role: RoleLeft},
	},
	KindDecorated: {
		{role: RoleDefinition, kinds: []Kind{KindClass, KindFunction}},
	},
	KindParameter: {
		{role: RoleName, kinds: []Kind{KindIdentifier, KindSplat}},
	},
	KindSplat: {
		{role: RoleName, kinds: []Kind{KindIdentifier}},
	},
}

// Child returns the child filling role, if the node's kind defines that role
// and a matching child is present.
func (n *Node) Child(role Role) (*Node, bool) {
	if n == nil {
		return nil, false
	}
	for _, s := range schema[n.Kind] {
		if s.role != role {
			continue
		}
		for _, c := range n.Children {
			if c.Missing {
				continue
			}
			if len(s.kinds) == 0 || c.Is(s.kinds...) {
				return c, true
			}
		}
		return nil, false
	}
	return nil, false
}
