package edustack_test

import (
	"testing"

	"github.com/davidkroell/edustack"
	"github.com/davidkroell/edustack/internal/mocks"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternetLayerStrategyImpl_GetHandler(t *testing.T) {
	ctrl := gomock.NewController(t)

	icmpHandler := mocks.NewMockTransportLayerHandler(ctrl)
	strategy := edustack.NewInternetLayerStrategy()
	require.NoError(t, strategy.Register(edustack.IPProtocolICMPv4, icmpHandler))

	tests := map[string]struct {
		ipProto     edustack.IPProtocol
		wantErr     error
		wantHandler edustack.TransportLayerHandler
	}{
		"ICMP": {
			ipProto:     edustack.IPProtocolICMPv4,
			wantErr:     nil,
			wantHandler: icmpHandler,
		},
		"TCP": {
			ipProto:     edustack.IPProtocolTCP,
			wantErr:     edustack.ErrNoInternetLayerHandler,
			wantHandler: nil,
		},
		"UDP": {
			ipProto:     edustack.IPProtocolUDP,
			wantErr:     edustack.ErrNoInternetLayerHandler,
			wantHandler: nil,
		},
	}

	for name, v := range tests {
		t.Run(name, func(t *testing.T) {
			handler, err := strategy.GetHandler(v.ipProto)

			assert.ErrorIs(t, err, v.wantErr)
			assert.Equal(t, v.wantHandler, handler)
		})
	}
}

func TestInternetLayerStrategyImpl_RegisterTwice(t *testing.T) {
	ctrl := gomock.NewController(t)
	strategy := edustack.NewInternetLayerStrategy()

	require.NoError(t, strategy.Register(edustack.IPProtocolUDP, mocks.NewMockTransportLayerHandler(ctrl)))
	err := strategy.Register(edustack.IPProtocolUDP, mocks.NewMockTransportLayerHandler(ctrl))
	assert.ErrorIs(t, err, edustack.ErrProtocolAlreadyRegistered)
}
