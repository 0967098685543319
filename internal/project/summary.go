package project

import "math"

// Summary condenses a ProjectGraph into parse statistics.
type Summary struct {
	TotalFiles       int      `json:"total_files"`
	SuccessfulParses int      `json:"successful_parses"`
	FailedParses     int      `json:"failed_parses"`
	TotalLines       int      `json:"total_lines"`
	TotalSizeMB      float64  `json:"total_size_mb"`
	FilesWithErrors  []string `json:"files_with_errors"`
}

// Summarize counts parsed and failed files. A file with a syntax error still
// has a tree and counts as parsed; it is listed in FilesWithErrors.
func Summarize(g *ProjectGraph) Summary {
	s := Summary{
		TotalFiles:      g.TotalFiles,
		TotalLines:      g.TotalLines,
		TotalSizeMB:     math.Round(float64(g.TotalSizeBytes)/(1024*1024)*100) / 100,
		FilesWithErrors: []string{},
	}
	for _, f := range g.Files {
		if f.Parsed {
			s.SuccessfulParses++
		} else {
			s.FailedParses++
		}
		if len(f.ParseErrors) > 0 {
			s.FilesWithErrors = append(s.FilesWithErrors, f.Path)
		}
	}
	return s
}
