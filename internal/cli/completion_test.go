package cli

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestCompleteFormats(t *testing.T) {
	tests := []struct {
		toComplete string
		want       []string
	}{
		{"", []string{"dot", "json", "pdf", "png", "svg"}},
		{"p", []string{"pdf", "png"}},
		{"json,", []string{"json,dot", "json,pdf", "json,png", "json,svg"}},
		{"json,s", []string{"json,svg"}},
		{"json,svg,x", nil},
	}
	for _, tt := range tests {
		got, dir := completeFormats(nil, nil, tt.toComplete)
		assert.Equal(t, tt.want, got, "completeFormats(%q)", tt.toComplete)
		assert.NotZero(t, dir&cobra.ShellCompDirectiveNoFileComp)
	}
}

func TestCompleteDevice(t *testing.T) {
	got, _ := completeDevice(nil, nil, "slg4662")
	assert.Equal(t, []string{"SLG46620V", "SLG46621V"}, got)

	got, _ = completeDevice(nil, nil, "board")
	assert.Empty(t, got)
}
