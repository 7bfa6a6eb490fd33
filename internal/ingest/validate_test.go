package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bookdata-explorer/bookdata/internal/record"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		table Table
		want  []string
	}{
		{
			name: "clean",
			table: Table{
				Columns: []string{record.Title, record.ASIN, record.Author},
				Rows: []record.Record{
					{record.Title: "A", record.ASIN: "B1", record.Author: "X"},
					{record.Title: "B", record.ASIN: "B2", record.Author: "Y"},
				},
			},
		},
		{
			name:  "missing columns and empty",
			table: Table{Columns: []string{record.Title}},
			want:  []string{"Missing columns: ASIN, Author", "Empty file"},
		},
		{
			name: "duplicates and missing values",
			table: Table{
				Columns: []string{record.Title, record.ASIN, record.Author},
				Rows: []record.Record{
					{record.Title: "A", record.ASIN: "B1", record.Author: "X"},
					{record.Title: "A", record.ASIN: "B1", record.Author: nil},
					{record.Title: nil, record.ASIN: "B1"},
					{record.Title: "C", record.ASIN: "B3", record.Author: "Z"},
				},
			},
			want: []string{
				"Found 2 duplicate ASINs",
				"1 missing values in Title",
				"2 missing values in Author",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(tt.table, "test.csv"))
		})
	}
}
