package endpoint

import (
	"github.com/oslowtech/reliabletransfer/arq"
	"github.com/oslowtech/reliabletransfer/protocol"
)

func newArqSender(mode protocol.Mode, windowSize uint16) arq.Sender {
	switch mode {
	case protocol.StopWait:
		return arq.NewStopWaitSender(windowSize)
	case protocol.SelectiveRepeat:
		return arq.NewSelectiveRepeatSender(windowSize)
	default:
		return arq.NewGoBackNSender(windowSize)
	}
}

func newArqReceiver(mode protocol.Mode, windowSize uint16) arq.Receiver {
	switch mode {
	case protocol.StopWait:
		return arq.NewStopWaitReceiver()
	case protocol.SelectiveRepeat:
		return arq.NewSelectiveRepeatReceiver(windowSize)
	default:
		return arq.NewGoBackNReceiver(windowSize)
	}
}
