package replay

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathanyu/lob-engine/internal/domain"
)

func TestReadAll(t *testing.T) {
	data := strings.Join([]string{
		"34200.013,1,11885113,21,2238100,1",
		"34200.015,1,11885114,100,2239500,-1",
	}, "\n")

	events, err := NewReader(strings.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, domain.MarketEvent{
		TimeSec:   34200.013,
		EventType: 1,
		OrderID:   11885113,
		Size:      21,
		Price:     2238100,
		Direction: 1,
	}, events[0])
	assert.Equal(t, -1, events[1].Direction)
}

func TestNextEOF(t *testing.T) {
	r := NewReader(strings.NewReader(""))
	_, err := r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestRejectsBadRows(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"short row", "34200.013,1,11885113,21,2238100"},
		{"bad time", "abc,1,11885113,21,2238100,1"},
		{"bad size", "34200.013,1,11885113,x,2238100,1"},
		{"bad direction", "34200.013,1,11885113,21,2238100,2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(strings.NewReader(tt.row)).Next()
			assert.Error(t, err)
		})
	}
}

func TestErrorCarriesRowNumber(t *testing.T) {
	data := "34200.013,1,11885113,21,2238100,1\n34200.014,1,11885114,bad,2238100,1"
	r := NewReader(strings.NewReader(data))

	_, err := r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestSide(t *testing.T) {
	assert.Equal(t, domain.Bid, Side(1))
	assert.Equal(t, domain.Ask, Side(-1))
}
