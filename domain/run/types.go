package run

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"gostatsplot/domain/core"
)

// Run is one executed plot operation as persisted by the run store
type Run struct {
	ID          core.RunID `json:"id" db:"id"`
	Operation   string     `json:"operation" db:"operation"`
	Variables   []string   `json:"variables" db:"-"`
	TestType    string     `json:"type" db:"test_type"`
	Paired      bool       `json:"paired" db:"paired"`
	Title       string     `json:"title" db:"title"`
	Subtitle    string     `json:"subtitle" db:"subtitle"`
	Caption     string     `json:"caption" db:"caption"`
	ImagePath   string     `json:"image_path,omitempty" db:"image_path"`
	Seed        uint64     `json:"seed" db:"seed"`
	Fingerprint string     `json:"fingerprint" db:"fingerprint"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// NewRun stamps a run with a fresh ID, creation time and fingerprint
func NewRun(operation string, variables []string, testType string, paired bool, seed uint64) *Run {
	r := &Run{
		ID:        core.RunID(core.NewID()),
		Operation: operation,
		Variables: append([]string(nil), variables...),
		TestType:  testType,
		Paired:    paired,
		Seed:      seed,
		CreatedAt: time.Now().UTC(),
	}
	r.Fingerprint = Fingerprint(operation, variables, testType, paired, seed)
	return r
}

// Fingerprint hashes the inputs that determine a run's output. Two runs
// with equal fingerprints over the same data render identical subtitles.
func Fingerprint(operation string, variables []string, testType string, paired bool, seed uint64) string {
	data := fmt.Sprintf("operation:%s|variables:%s|type:%s|paired:%t|seed:%d",
		operation, strings.Join(variables, ","), testType, paired, seed)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
