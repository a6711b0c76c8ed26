package edustack

// IPv4LinkLayerHandler parses inbound IPv4 frames and passes them on to the
// internet layer together with the interface of the receiving device.
type IPv4LinkLayerHandler struct {
	internetLayerHandler *Internetv4LayerHandler
}

func NewIPv4LinkLayerHandler(internetLayerHandler *Internetv4LayerHandler) *IPv4LinkLayerHandler {
	return &IPv4LinkLayerHandler{internetLayerHandler: internetLayerHandler}
}

func (llh *IPv4LinkLayerHandler) Handle(f *PendingFrame) error {
	var ipv4Packet IPv4Pdu

	err := (&ipv4Packet).UnmarshalBinary(f.Payload)
	if err != nil {
		return err
	}

	dev, err := llh.internetLayerHandler.devices.Device(f.Device)
	if err != nil {
		return err
	}

	in := dev.Interface(AddressFamilyIPv4)
	if in == nil {
		// the device has no address, nothing here is for us
		return ErrDropPdu
	}

	return llh.internetLayerHandler.Handle(&ipv4Packet, in)
}
