package extract

import (
	"testing"

	"go-id-validator/models"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected models.IdType
	}{
		{"two government hits", "Passport Number\nRepublic of Freedonia", models.IdTypeGovernment},
		{"two student hits", "University of Somewhere\nStudent Council", models.IdTypeStudent},
		{"single government hit", "driver permit", models.IdTypeGovernment},
		{"single student hit", "campus access card", models.IdTypeStudent},
		{"no hits", "JUAN DELA CRUZ 123456789", models.IdTypeUnknown},
		{"case insensitive", "PASSPORT NO. GOVERNMENT ISSUED", models.IdTypeGovernment},
		{"empty text", "", models.IdTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, Classify(tt.text))
		})
	}
}

// One hit each way resolves to government, never to student or unknown.
func TestClassifySingleHitTie(t *testing.T) {
	require.Equal(t, models.IdTypeGovernment, Classify("federal college"))
}

// Two student hits outrank a single government hit.
func TestClassifyConfidentStudentBeatsWeakGovernment(t *testing.T) {
	require.Equal(t, models.IdTypeStudent, Classify("university campus official"))
}
