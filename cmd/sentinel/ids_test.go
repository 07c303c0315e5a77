package main

import (
	"errors"
	"testing"

	"github.com/Veraticus/subscription-sentinel/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchID(t *testing.T) {
	ids := []string{"3f2a9c1e-aaaa", "3f2a0000-bbbb", "7c11d2e0-cccc", "7c11"}

	tests := []struct {
		name     string
		ref      string
		want     string
		notFound bool
		wantErr  bool
	}{
		{name: "exact", ref: "3f2a9c1e-aaaa", want: "3f2a9c1e-aaaa"},
		{name: "unique prefix", ref: "3f2a9", want: "3f2a9c1e-aaaa"},
		{name: "exact wins over prefix", ref: "7c11", want: "7c11"},
		{name: "ambiguous", ref: "3f2a", wantErr: true},
		{name: "no match", ref: "ffff", wantErr: true, notFound: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := matchID("alert", tt.ref, ids)
			if tt.wantErr {
				require.Error(t, err)
				var userErr *common.UserError
				assert.True(t, errors.As(err, &userErr))
				assert.Equal(t, tt.notFound, errors.Is(err, common.ErrNotFound))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
