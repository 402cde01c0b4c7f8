package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanContractDeclarations(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Declaration
	}{
		{
			name: "yaml comment",
			text: "# QFAI-CONTRACT-ID: UI-0001\nid: UI-0001\n",
			want: []Declaration{{Value: "UI-0001", Line: 1}},
		},
		{
			name: "sql comment",
			text: "-- QFAI-CONTRACT-ID: DB-0001\nCREATE TABLE users (id int);\n",
			want: []Declaration{{Value: "DB-0001", Line: 1}},
		},
		{
			name: "line comment",
			text: "{\n// QFAI-CONTRACT-ID: API-0001\n}",
			want: []Declaration{{Value: "API-0001", Line: 2}},
		},
		{
			name: "block comment",
			text: "/* QFAI-CONTRACT-ID: DB-0002 */\n",
			want: []Declaration{{Value: "DB-0002", Line: 1}},
		},
		{
			name: "bare marker",
			text: "QFAI-CONTRACT-ID: API-0003\n",
			want: []Declaration{{Value: "API-0003", Line: 1}},
		},
		{
			name: "malformed value is kept raw",
			text: "# QFAI-CONTRACT-ID: ui-01\n",
			want: []Declaration{{Value: "ui-01", Line: 1}},
		},
		{
			name: "multiple declarations",
			text: "# QFAI-CONTRACT-ID: UI-0001\n# QFAI-CONTRACT-ID: UI-0002\n",
			want: []Declaration{{Value: "UI-0001", Line: 1}, {Value: "UI-0002", Line: 2}},
		},
		{
			name: "mid-line mention is ignored",
			text: "description: see QFAI-CONTRACT-ID: UI-0001\n",
			want: nil,
		},
		{
			name: "none",
			text: "openapi: 3.0.0\n",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScanContractDeclarations(tt.text))
		})
	}
}
