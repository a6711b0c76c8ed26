package edustack

import "sync"

type protocolRegistration struct {
	protocol ProtocolID
	handler  LinkLayerHandler
	queue    *frameQueue
}

// LinkLayerStrategy maps protocol ids to their handler and queue.
type LinkLayerStrategy struct {
	mu         sync.RWMutex
	strategies map[ProtocolID]*protocolRegistration
	order      []*protocolRegistration
	queueSize  int
}

func NewLinkLayerStrategy(queueSize int) *LinkLayerStrategy {
	return &LinkLayerStrategy{
		strategies: make(map[ProtocolID]*protocolRegistration),
		queueSize:  queueSize,
	}
}

func (l *LinkLayerStrategy) Register(protocol ProtocolID, handler LinkLayerHandler) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.strategies[protocol]; ok {
		return ErrProtocolAlreadyRegistered
	}

	reg := &protocolRegistration{
		protocol: protocol,
		handler:  handler,
		queue:    newFrameQueue(l.queueSize),
	}
	l.strategies[protocol] = reg
	l.order = append(l.order, reg)
	return nil
}

func (l *LinkLayerStrategy) GetHandler(protocol ProtocolID) (LinkLayerHandler, error) {
	reg, err := l.lookup(protocol)
	if err != nil {
		return nil, err
	}
	return reg.handler, nil
}

func (l *LinkLayerStrategy) lookup(protocol ProtocolID) (*protocolRegistration, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	reg, ok := l.strategies[protocol]
	if !ok {
		return nil, ErrNoLinkLayerHandler
	}
	return reg, nil
}

// GetSupportedProtocols lists the protocols in registration order.
func (l *LinkLayerStrategy) GetSupportedProtocols() []ProtocolID {
	l.mu.RLock()
	defer l.mu.RUnlock()

	protocols := make([]ProtocolID, len(l.order))
	for i, reg := range l.order {
		protocols[i] = reg.protocol
	}
	return protocols
}

func (l *LinkLayerStrategy) registrations() []*protocolRegistration {
	l.mu.RLock()
	defer l.mu.RUnlock()

	regs := make([]*protocolRegistration, len(l.order))
	copy(regs, l.order)
	return regs
}
