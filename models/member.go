package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Member represents a member of the team. Each member owns a scheduled lane and
// a backlog lane on the grid.
type Member struct {
	Name string `gorm:"primaryKey" json:"name"`
	// FreeTimePercentage is the share (1-100) of the member's time available
	// for the tasks tracked on the board.
	FreeTimePercentage int `gorm:"not null" json:"free_time_percentage"`
}

func (Member) TableName() string { return "member" }

// Initials returns the first letter of each part of the name, in order.
func (m Member) Initials() string {
	var b strings.Builder
	for _, part := range strings.Fields(m.Name) {
		b.WriteString(string([]rune(part)[0]))
	}
	return b.String()
}

// Validate checks the member can be stored.
func (m Member) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("invalid member: name is empty")
	}
	if m.FreeTimePercentage < 1 || m.FreeTimePercentage > 100 {
		return fmt.Errorf("invalid member %s: free time percentage must be between 1 and 100, got %d", m.Name, m.FreeTimePercentage)
	}
	return nil
}

// KeyDigits is the width of the sequence number in a project key.
const KeyDigits = 5

// NextKey returns the project key following lastKey for the given initials.
// An empty lastKey yields the first key, e.g. "JD00001".
func NextKey(initials, lastKey string) (string, error) {
	number := 0
	if lastKey != "" {
		if !strings.HasPrefix(lastKey, initials) {
			return "", fmt.Errorf("project key %s does not start with %s", lastKey, initials)
		}
		n, err := strconv.Atoi(lastKey[len(initials):])
		if err != nil {
			return "", fmt.Errorf("invalid project key %s: %w", lastKey, err)
		}
		number = n
	}
	return fmt.Sprintf("%s%0*d", initials, KeyDigits, number+1), nil
}
