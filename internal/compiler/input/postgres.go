package input

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/pkg/postgres"
)

// PostgresDocuments streams document bodies from a database query instead of
// a flat file. The query must return one content column per row, ordered by
// document position; row order is the DocumentID assignment.
type PostgresDocuments struct {
	rows     *sql.Rows
	encoding string
	count    uint64
}

func NewPostgresDocuments(ctx context.Context, client *postgres.Client, query, encoding string) (*PostgresDocuments, error) {
	rows, err := client.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	return &PostgresDocuments{rows: rows, encoding: encoding}, nil
}

func (p *PostgresDocuments) Next() ([]byte, error) {
	if !p.rows.Next() {
		if err := p.rows.Err(); err != nil {
			return nil, fmt.Errorf("iterating document rows: %w", err)
		}
		return nil, io.EOF
	}
	var content []byte
	if err := p.rows.Scan(&content); err != nil {
		return nil, fmt.Errorf("scanning document row: %w", err)
	}
	if err := ValidateContent(p.encoding, content); err != nil {
		return nil, fmt.Errorf("document %d: %w", p.count, err)
	}
	p.count++
	return content, nil
}

// Close releases the underlying result set.
func (p *PostgresDocuments) Close() error {
	return p.rows.Close()
}
