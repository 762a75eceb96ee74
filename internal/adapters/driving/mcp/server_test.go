package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil ports returns error", func(t *testing.T) {
		server, err := NewServer(nil)
		require.Error(t, err)
		assert.Nil(t, server)
	})

	t.Run("missing chat service returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingChatService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(validPorts())
		require.NoError(t, err)
		assert.NotNil(t, server)
		assert.Equal(t, Version, server.version)
	})

	t.Run("version option overrides default", func(t *testing.T) {
		server, err := NewServer(validPorts(), WithVersion("1.2.3"))
		require.NoError(t, err)
		assert.Equal(t, "1.2.3", server.version)
	})

	t.Run("empty version keeps default", func(t *testing.T) {
		server, err := NewServer(validPorts(), WithVersion(""))
		require.NoError(t, err)
		assert.Equal(t, Version, server.version)
	})
}

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ports   *Ports
		wantErr error
	}{
		{
			name:    "empty ports",
			ports:   &Ports{},
			wantErr: ErrMissingChatService,
		},
		{
			name:    "missing retrieval",
			ports:   &Ports{Chat: &mockChatService{}},
			wantErr: ErrMissingRetrievalService,
		},
		{
			name:  "chat and retrieval are enough",
			ports: validPorts(),
		},
		{
			name: "all ports",
			ports: &Ports{
				Chat:      &mockChatService{},
				Retrieval: &mockRetrievalService{},
				Document:  &mockDocumentService{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ports.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
