// SPDX-License-Identifier: MIT

// Implements the pcapflow "decode" command, which drives a pcapflow.Decoder
// over a file or stdin and logs one line per event, grounded on the
// goroutine-feeds-a-buffer shape of the teacher's capture stream plumbing.
package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pcapflow/pcapflow"
	"github.com/pcapflow/pcapflow/streambuf"
)

var decodeCmd = &cobra.Command{
	Use:   "decode FILE",
	Short: "Stream-decode a legacy PCAP or PCAPng capture file",
	Long: `decode reads a capture file (or "-" for stdin) and logs one line per
decoded section, interface, packet, name resolution, statistics, secrets or
custom block, until the stream ends or a fatal error occurs.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return decode(args[0])
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s version %s\n", cmd.Parent().Name(), pcapflow.SemVersion)
	},
}

func decode(path string) error {
	in := os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("cannot open capture file: %w", err)
		}
		defer f.Close()
		in = f
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-done
		log.Debug("interrupted, cancelling decode")
		cancel()
	}()

	buf := streambuf.New()
	go feed(in, buf)

	cfg := pcapflow.Config{RejectOld: RejectOld, RejectNG: RejectNG}
	for ev := range pcapflow.New(cfg).Run(ctx, buf) {
		logEvent(ev)
	}
	return nil
}

// feed pumps DefaultFeedChunkSize-sized reads from r into buf until EOF or a
// read error, then ends or aborts buf accordingly. This mirrors the producer
// side of the streambuf.Buffer contract that wsfeed.Feeder implements for a
// websocket connection.
func feed(r io.Reader, buf *streambuf.Buffer) {
	chunk := make([]byte, pcapflow.DefaultFeedChunkSize)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			if _, werr := buf.Write(chunk[:n]); werr != nil {
				buf.Abort(werr)
				return
			}
		}
		if err != nil {
			if err == io.EOF {
				buf.End()
			} else {
				buf.Abort(err)
			}
			return
		}
	}
}

func logEvent(ev pcapflow.Event) {
	switch ev.Kind {
	case pcapflow.EventSection:
		log.Infof("section: version %d.%d", ev.Section.MajorVersion, ev.Section.MinorVersion)
	case pcapflow.EventInterface:
		log.Infof("interface: %s linktype=%s snaplen=%d", ev.Interface.Name, ev.Interface.LinkTypeName, ev.Interface.SnapLen)
	case pcapflow.EventData:
		log.Debugf("packet: len=%d timestamp=%d", ev.Data.OriginalPacketLength, ev.Data.Timestamp)
	case pcapflow.EventNames:
		log.Infof("name resolution: %d record(s)", len(ev.Names.Records))
	case pcapflow.EventStats:
		log.Infof("interface statistics: interface=%d", ev.Stats.InterfaceID)
	case pcapflow.EventSecrets:
		log.Infof("decryption secrets: type=%d", ev.Secrets.SecretsType)
	case pcapflow.EventCustom:
		log.Debugf("custom block: PEN=%d", ev.Custom.PEN)
	case pcapflow.EventUnknown:
		log.Debugf("unknown block type %#x", ev.Unknown)
	case pcapflow.EventError:
		log.Errorf("%s", ev.Err)
	case pcapflow.EventClose:
		log.Debug("decode stream closed")
	}
}
