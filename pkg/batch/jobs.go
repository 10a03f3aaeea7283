package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Job is one input PDF and the markdown file its messages are written to
type Job struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output,omitempty"`
}

type jobsFile struct {
	Jobs []Job `yaml:"jobs"`
}

// ErrNoJobs is returned when a jobs file or directory yields nothing to do
var ErrNoJobs = errors.New("no jobs")

// OutputFor returns the default output path for a PDF: same name, .md extension
func OutputFor(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".md"
}

// LoadJobs reads a YAML jobs file:
//
//	jobs:
//	  - input: exports/alice.pdf
//	    output: out/alice.md
//	  - input: exports/bob.pdf
//
// Relative paths are resolved against the directory of the jobs file.
// A missing output defaults to OutputFor(input).
func LoadJobs(path string) ([]Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read jobs file: %w", err)
	}

	var file jobsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse jobs file %s: %w", path, err)
	}

	base := filepath.Dir(path)
	jobs := make([]Job, 0, len(file.Jobs))
	for i, job := range file.Jobs {
		if strings.TrimSpace(job.Input) == "" {
			return nil, fmt.Errorf("job %d in %s: input is required", i+1, path)
		}
		job.Input = resolve(base, job.Input)
		if job.Output == "" {
			job.Output = OutputFor(job.Input)
		} else {
			job.Output = resolve(base, job.Output)
		}
		jobs = append(jobs, job)
	}

	if len(jobs) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoJobs)
	}
	return jobs, nil
}

// JobsFromDir creates a job for every PDF in dir, in lexical order
func JobsFromDir(dir string, recursive bool) ([]Job, error) {
	var jobs []Job
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			jobs = append(jobs, Job{Input: path, Output: OutputFor(path)})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	if len(jobs) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoJobs)
	}
	return jobs, nil
}

func resolve(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
