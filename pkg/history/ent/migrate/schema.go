// Package migrate holds the ent migration schema of the history store.
package migrate

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// ExchangesColumns holds the columns for the "exchanges" table.
	// Timestamps are unix nanoseconds.
	ExchangesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "tenant_id", Type: field.TypeString, Default: ""},
		{Name: "document_id", Type: field.TypeString},
		{Name: "query", Type: field.TypeString, Size: 2147483647},
		{Name: "answer", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "citations", Type: field.TypeString, Size: 2147483647, Default: "[]"},
		{Name: "outcome", Type: field.TypeString},
		{Name: "error", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "started_at", Type: field.TypeInt64},
		{Name: "completed_at", Type: field.TypeInt64},
	}

	// ExchangesTable holds the schema information for the "exchanges" table.
	ExchangesTable = &schema.Table{
		Name:       "exchanges",
		Columns:    ExchangesColumns,
		PrimaryKey: []*schema.Column{ExchangesColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "exchange_tenant_id_document_id_started_at",
				Unique:  false,
				Columns: []*schema.Column{ExchangesColumns[1], ExchangesColumns[2], ExchangesColumns[8]},
			},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		ExchangesTable,
	}
)

// Create runs ent's auto-migration for Tables on drv. It only applies
// append-only changes: new tables, columns and indexes.
func Create(ctx context.Context, drv dialect.Driver, opts ...schema.MigrateOption) error {
	m, err := schema.NewMigrate(drv, opts...)
	if err != nil {
		return fmt.Errorf("ent/migrate: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
