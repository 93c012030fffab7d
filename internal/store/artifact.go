package store

import (
	"bytes"
	"context"
	"encoding/json"
	"os"

	"github.com/natefinch/atomic"

	"flowmind/internal/services"
)

// Artifact mirrors the requirement and test-case tables as one JSON document,
// rewritten wholesale on every Save.
type Artifact struct {
	Filtering    FilterStats   `json:"filtering"`
	Requirements []Requirement `json:"requirements"`
	TestCases    []TestCase    `json:"test_cases"`
}

// ArtifactPath returns the artifact file location.
func (s *Store) ArtifactPath() string {
	return s.artifactPath
}

// ReadArtifact loads the mirrored JSON document from disk.
func (s *Store) ReadArtifact() (*Artifact, error) {
	data, err := os.ReadFile(s.artifactPath)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "store", "read artifact", s.artifactPath, err)
	}
	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, services.Wrap(services.ErrPersistence, "store", "decode artifact", s.artifactPath, err)
	}
	return &artifact, nil
}

func (s *Store) writeArtifact(ctx context.Context, stats FilterStats) error {
	requirements, err := s.LoadAll(ctx)
	if err != nil {
		return err
	}
	cases, err := s.AllTestCases(ctx)
	if err != nil {
		return err
	}
	artifact := Artifact{
		Filtering:    stats,
		Requirements: requirements,
		TestCases:    cases,
	}
	if artifact.Requirements == nil {
		artifact.Requirements = []Requirement{}
	}
	if artifact.TestCases == nil {
		artifact.TestCases = []TestCase{}
	}

	encoded, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrPersistence, "store", "encode artifact", "", err)
	}
	if err := atomic.WriteFile(s.artifactPath, bytes.NewReader(encoded)); err != nil {
		return services.Wrap(services.ErrPersistence, "store", "write artifact", s.artifactPath, err)
	}
	return nil
}
