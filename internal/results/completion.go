package results

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/labinot-bajgora/ECK-safety/internal/training"
)

const (
	// DefaultCompletionPrefix starts every completion id.
	DefaultCompletionPrefix = "SH"

	completionDigits = 4
	// collisionsPerWidth is how many taken ids are tolerated before the
	// numeric part grows by one digit.
	collisionsPerWidth  = 8
	maxCompletionDigits = 9
)

// completionIDs hands out completion ids of the form PREFIX-####.
type completionIDs struct {
	prefix string
	exists func(ctx context.Context, id string) (bool, error)
}

// Next returns an id not yet used by any stored result.
func (g completionIDs) Next(ctx context.Context) (string, error) {
	for digits := completionDigits; digits <= maxCompletionDigits; digits++ {
		for i := 0; i < collisionsPerWidth; i++ {
			n, err := randomWithDigits(digits)
			if err != nil {
				return "", fmt.Errorf("generate completion id: %w", err)
			}
			id := fmt.Sprintf("%s-%d", g.prefix, n)
			taken, err := g.exists(ctx, id)
			if err != nil {
				return "", err
			}
			if !taken {
				return id, nil
			}
		}
	}
	return "", fmt.Errorf("generate completion id: id space exhausted")
}

// randomWithDigits returns a uniformly random number with exactly digits
// decimal digits.
func randomWithDigits(digits int) (int64, error) {
	low := int64(1)
	for i := 1; i < digits; i++ {
		low *= 10
	}
	n, err := rand.Int(rand.Reader, big.NewInt(9*low))
	if err != nil {
		return 0, err
	}
	return low + n.Int64(), nil
}

// normalizeName folds case and collapses whitespace so that "Arta  " and
// "arta" identify the same learner.
func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// SeatKey is the idempotency key guarding a single seat deduction for one
// learner on one access code.
func SeatKey(learner training.LearnerData) string {
	sum := sha256.Sum256([]byte(normalizeName(learner.FirstName) + "\x00" + normalizeName(learner.LastName)))
	return "seat-deduction/" + training.NormalizeCode(learner.AccessCode) + "/" + hex.EncodeToString(sum[:])
}
