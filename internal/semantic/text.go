package semantic

import "github.com/daybook-edu/daybook/internal/store"

// ExpectationText builds the embeddable text for an expectation. The
// projection is deterministic so re-embedding the same expectation always
// sends the same input to the provider.
func ExpectationText(e *store.Expectation) string {
	return e.Code + ": " + e.Description
}
