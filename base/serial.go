package base

// SerialDataBits, SerialParity, SerialStopBits and SerialFlowControl are the
// parameters a SerialStream negotiates with the far end. They are distinct
// types rather than bare ints so a caller can't transpose a baud rate and a
// parity setting and have it compile.
type SerialDataBits int

const (
	Serial5DataBits SerialDataBits = 5
	Serial6DataBits SerialDataBits = 6
	Serial7DataBits SerialDataBits = 7
	Serial8DataBits SerialDataBits = 8
)

type SerialParity int

const (
	SerialNoParity    SerialParity = 1
	SerialOddParity   SerialParity = 2
	SerialEvenParity  SerialParity = 3
	SerialMarkParity  SerialParity = 4
	SerialSpaceParity SerialParity = 5
)

type SerialStopBits int

const (
	SerialOneStopBit         SerialStopBits = 1
	SerialTwoStopBits        SerialStopBits = 2
	SerialOneAndHalfStopBits SerialStopBits = 3
)

type SerialFlowControl int

const (
	SerialNoFlowControl  SerialFlowControl = 1
	SerialSWFlowControl  SerialFlowControl = 2
	SerialHWFlowControl  SerialFlowControl = 3
	SerialDCDFlowControl SerialFlowControl = 17
	SerialDSRFlowControl SerialFlowControl = 19
)

// SerialStreamSettings is the line configuration a SerialStream is opened
// with. The modem itself only ever needs 115200 8N1, but the transport
// packages (directserial, moxarealcom, rfc2217) are general purpose.
type SerialStreamSettings struct {
	BaudRate    int
	DataBits    SerialDataBits
	Parity      SerialParity
	StopBits    SerialStopBits
	FlowControl SerialFlowControl
}

// DefaultModemSettings is the line configuration the modem speaks.
func DefaultModemSettings() SerialStreamSettings {
	return SerialStreamSettings{
		BaudRate:    115200,
		DataBits:    Serial8DataBits,
		Parity:      SerialNoParity,
		StopBits:    SerialOneStopBit,
		FlowControl: SerialNoFlowControl,
	}
}

type SerialStream interface {
	Stream

	SetSpeed(baudRate int, dataBits SerialDataBits, parity SerialParity, stopBits SerialStopBits) error
	SetFlowControl(flowControl SerialFlowControl) error
	SetDTR(dtr bool) error
}
