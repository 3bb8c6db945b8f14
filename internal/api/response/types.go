package response

import (
	"github.com/mcoot/playeraccounts/internal/model"
)

// PreviousAddress is an address history entry
type PreviousAddress struct {
	Value      string `json:"value"`
	LastUsedOn int64  `json:"last_used_on"`
}

// Account represents an account in API responses
type Account struct {
	UUID              string            `json:"uuid"`
	Name              string            `json:"name"`
	Role              string            `json:"role"`
	CurrentAddress    string            `json:"current_address,omitempty"`
	PreviousNames     []string          `json:"previous_names"`
	PreviousAddresses []PreviousAddress `json:"previous_addresses"`
}

// AccountFromModel converts a model.Account to a response Account
func AccountFromModel(a *model.Account) Account {
	history := a.PreviousAddresses()
	addresses := make([]PreviousAddress, len(history))
	for i, pa := range history {
		addresses[i] = PreviousAddress{Value: pa.Value, LastUsedOn: pa.LastUsedOn}
	}

	return Account{
		UUID:              a.ID().String(),
		Name:              a.Username(),
		Role:              a.Role().String(),
		CurrentAddress:    a.CurrentAddress(),
		PreviousNames:     a.PreviousUsernames(),
		PreviousAddresses: addresses,
	}
}

// Sessions lists the accounts of online players
type Sessions struct {
	Online []Account `json:"online"`
}

// SessionsFromModel converts the online accounts
func SessionsFromModel(accounts []*model.Account) Sessions {
	online := make([]Account, len(accounts))
	for i, a := range accounts {
		online[i] = AccountFromModel(a)
	}
	return Sessions{Online: online}
}

// Health is the health check response
type Health struct {
	Status string `json:"status"`
	Store  string `json:"store"`
	Online int    `json:"online"`
}
