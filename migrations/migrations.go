// Package migrations embeds the database schema. The integration test
// containers apply it on startup; deployments apply it with their migration
// tooling.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

// Schema returns the full DDL, files concatenated in name order.
func Schema() (string, error) {
	entries, err := FS.ReadDir(".")
	if err != nil {
		return "", err
	}
	var out []byte
	for _, e := range entries {
		b, err := FS.ReadFile(e.Name())
		if err != nil {
			return "", err
		}
		out = append(out, b...)
		out = append(out, '\n')
	}
	return string(out), nil
}
