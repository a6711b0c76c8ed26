package edustack

import (
	"fmt"
	"sync"
)

//go:generate mockgen -destination ./internal/mocks/mock_internet_layer_strategy.go -package mocks github.com/davidkroell/edustack InternetLayerStrategy

// InternetLayerStrategy selects the upper layer handler of a datagram.
type InternetLayerStrategy interface {
	Register(ipProto IPProtocol, handler TransportLayerHandler) error
	GetHandler(ipProto IPProtocol) (TransportLayerHandler, error)
}

type InternetLayerStrategyImpl struct {
	mu       sync.RWMutex
	handlers map[IPProtocol]TransportLayerHandler
}

func NewInternetLayerStrategy() *InternetLayerStrategyImpl {
	return &InternetLayerStrategyImpl{
		handlers: make(map[IPProtocol]TransportLayerHandler),
	}
}

func (l *InternetLayerStrategyImpl) Register(ipProto IPProtocol, handler TransportLayerHandler) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.handlers[ipProto]; ok {
		return fmt.Errorf("%w: %s", ErrProtocolAlreadyRegistered, ipProto)
	}
	l.handlers[ipProto] = handler
	return nil
}

func (l *InternetLayerStrategyImpl) GetHandler(ipProto IPProtocol) (TransportLayerHandler, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	handler, ok := l.handlers[ipProto]
	if !ok {
		return nil, ErrNoInternetLayerHandler
	}
	return handler, nil
}
