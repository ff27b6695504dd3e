package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/dudk/clipchain/signal"
	"github.com/dudk/clipchain/wav"
)

type infoCommand struct {
	in string
}

func (cmd *infoCommand) Name() string {
	return "info"
}

func (cmd *infoCommand) Help() string {
	return "Print properties of a wav file"
}

func (cmd *infoCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.in, "in", "", "input wav file (required)")
}

func (cmd *infoCommand) Run() error {
	if cmd.in == "" {
		return errors.New("missing -in required flag")
	}
	_, info, err := wav.Load(cmd.in)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Sample rate:\t%d\n", info.SampleRate)
	fmt.Fprintf(stdout, "Channels:\t%d\n", info.NumChannels)
	fmt.Fprintf(stdout, "Bit depth:\t%d\n", info.BitDepth)
	fmt.Fprintf(stdout, "Frames:\t%d\n", info.Frames)
	fmt.Fprintf(stdout, "Duration:\t%v\n", signal.DurationOf(float64(info.SampleRate), int64(info.Frames)))
	return nil
}
