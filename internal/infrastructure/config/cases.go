package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SuiteFile is the on-disk definition of one conformance suite.
type SuiteFile struct {
	Suite string    `yaml:"suite"`
	Cases []CaseDef `yaml:"cases"`
}

type CaseDef struct {
	Name                 string     `yaml:"name"`
	URL                  string     `yaml:"url"`
	Pattern              string     `yaml:"pattern"`
	ExpectedCount        int        `yaml:"expected_count"`
	TimeoutMs            int        `yaml:"timeout_ms"`
	SummarizeConnections bool       `yaml:"summarize_connections"`
	SelectRange          bool       `yaml:"select_range"`
	Log                  LogDef     `yaml:"log"`
	Baseline             CommandDef `yaml:"baseline"`
	Candidate            CommandDef `yaml:"candidate"`
}

type LogDef struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
}

// The *_out paths name JSON section files the client harness writes during
// its run (pause/resume traces, cookie jar, progress lanes, error info).
type CommandDef struct {
	Argv     []string `yaml:"argv"`
	Env      []string `yaml:"env"`
	Dir      string   `yaml:"dir"`
	Download string   `yaml:"download"`

	EventsOut    string `yaml:"events_out"`
	PauseOut     string `yaml:"pause_out"`
	CookieJarOut string `yaml:"cookiejar_out"`
	ProgressOut  string `yaml:"progress_out"`
	ErrorOut     string `yaml:"error_out"`
}

// LoadSuite reads and validates a suite definition file.
func LoadSuite(path string) (SuiteFile, error) {
	var sf SuiteFile
	data, err := os.ReadFile(path)
	if err != nil {
		return sf, fmt.Errorf("read suite file: %w", err)
	}
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return sf, fmt.Errorf("parse suite file %s: %w", path, err)
	}
	if sf.Suite == "" {
		return sf, fmt.Errorf("suite file %s: missing suite name", path)
	}
	if len(sf.Cases) == 0 {
		return sf, fmt.Errorf("suite file %s: no cases", path)
	}
	for i, c := range sf.Cases {
		if c.Name == "" {
			return sf, fmt.Errorf("suite %s: case %d has no name", sf.Suite, i)
		}
		if c.URL == "" {
			return sf, fmt.Errorf("suite %s: case %s has no url", sf.Suite, c.Name)
		}
		if len(c.Baseline.Argv) == 0 || len(c.Candidate.Argv) == 0 {
			return sf, fmt.Errorf("suite %s: case %s needs baseline and candidate argv", sf.Suite, c.Name)
		}
		if c.Log.Path == "" {
			return sf, fmt.Errorf("suite %s: case %s has no log source", sf.Suite, c.Name)
		}
	}
	return sf, nil
}
