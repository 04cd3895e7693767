package carp

import "fmt"

// Finding is a lint result for a command.
type Finding struct {
	Key     string `json:"key"`
	Count   int    `json:"count"`
	Applied string `json:"applied"`
	Message string `json:"message"`
}

// Lint reports keys that are assigned more than once. The command is not
// modified. Findings are ordered by first occurrence of the key.
func Lint(c Command) []Finding {
	counts := make(map[string]int, len(c))
	var order []string
	for _, o := range c {
		if counts[o.Key] == 0 {
			order = append(order, o.Key)
		}
		counts[o.Key]++
	}

	var findings []Finding
	for _, key := range order {
		n := counts[key]
		if n < 2 {
			continue
		}
		applied, _ := c.Lookup(key)
		findings = append(findings, Finding{
			Key:     key,
			Count:   n,
			Applied: applied.String(),
			Message: fmt.Sprintf("%s assigned %d times, simulator uses %s", key, n, applied),
		})
	}
	return findings
}
