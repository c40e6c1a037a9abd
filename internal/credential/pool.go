// Package credential loads the ordered pool of Gemini API keys the gateway
// rotates through.
package credential

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Veraticus/tally/internal/common"
	"github.com/joho/godotenv"
)

// SlotPrefix is the common prefix of every credential slot variable.
const SlotPrefix = "GEMINI_API_KEY_"

// Slots lists the credential slot variables in try-order.
var Slots = []string{
	SlotPrefix + "A",
	SlotPrefix + "B",
	SlotPrefix + "C",
	SlotPrefix + "D",
	SlotPrefix + "E",
	SlotPrefix + "F",
	SlotPrefix + "G",
	SlotPrefix + "H",
}

// ErrNoCredentials is returned when every slot is unset or blank.
var ErrNoCredentials = errors.New("no usable credential")

// LookupFunc reads one configuration variable, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Credential is one opaque API key and where it came from.
type Credential struct {
	token string
	Slot  string
	Index int
}

// New builds a credential by hand. Mostly useful in tests.
func New(slot, token string, index int) Credential {
	return Credential{Slot: slot, Index: index, token: token}
}

// Token returns the raw key.
func (c Credential) Token() string {
	return c.token
}

// String renders the credential without leaking the key.
func (c Credential) String() string {
	return fmt.Sprintf("%s(%s)", c.Slot, redact(c.token))
}

func redact(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}

// Pool is an immutable, ordered list of credentials.
type Pool struct {
	creds []Credential
}

// NewPool builds a pool from explicit credentials, re-indexing them in order.
func NewPool(creds ...Credential) Pool {
	out := make([]Credential, len(creds))
	for i, c := range creds {
		c.Index = i
		out[i] = c
	}
	return Pool{creds: out}
}

// Len returns the number of credentials.
func (p Pool) Len() int {
	return len(p.creds)
}

// At returns the credential at position i.
func (p Pool) At(i int) Credential {
	return p.creds[i]
}

// All returns a copy of the credentials in try-order.
func (p Pool) All() []Credential {
	return append([]Credential(nil), p.creds...)
}

// Load reads the fixed slots through lookup, drops unset or blank ones and
// keeps declaration order. An empty result is a *common.ConfigurationError
// wrapping common.ErrMissingConfig and ErrNoCredentials.
func Load(lookup LookupFunc) (Pool, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	var creds []Credential
	for _, slot := range Slots {
		value, ok := lookup(slot)
		value = strings.TrimSpace(value)
		if !ok || value == "" {
			continue
		}
		creds = append(creds, Credential{Slot: slot, Index: len(creds), token: value})
	}

	if len(creds) == 0 {
		return Pool{}, &common.ConfigurationError{
			Err: fmt.Errorf("%w: %w: set at least one of %s..%s", common.ErrMissingConfig, ErrNoCredentials, Slots[0], Slots[len(Slots)-1]),
		}
	}
	return Pool{creds: creds}, nil
}

// LoadFromEnv merges the given dotenv files (missing files are ignored) into the
// process environment without overriding variables that are already set, then
// loads the pool from the environment.
func LoadFromEnv(envFiles ...string) (Pool, error) {
	for _, file := range envFiles {
		if file == "" {
			continue
		}
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Pool{}, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return Load(os.LookupEnv)
}
