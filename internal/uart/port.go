package uart

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

// Stdin selects standard input instead of a serial device.
const Stdin = "-"

// Open opens the serial device at path with 8N1 framing at the given baud rate.
// Closing the returned port unblocks a pending read.
func Open(path string, baud int) (io.ReadCloser, error) {
	if path == Stdin {
		log.Info().Msg("Reading events from stdin")
		return os.Stdin, nil
	}

	port, err := serial.Open(path, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}

	log.Info().Str("port", path).Int("baud", baud).Msg("Serial port opened")
	return port, nil
}
