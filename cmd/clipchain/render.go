package main

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/dudk/clipchain/chain"
	"github.com/dudk/clipchain/loop"
	"github.com/dudk/clipchain/signal"
	"github.com/dudk/clipchain/stretch"
	"github.com/dudk/clipchain/supply"
	"github.com/dudk/clipchain/wav"
)

// Environment variables with render defaults.
const (
	blockSizeEnv = "CLIPCHAIN_BLOCK_SIZE"
	bitDepthEnv  = "CLIPCHAIN_BIT_DEPTH"
)

type renderCommand struct {
	in        string
	out       string
	tempo     float64
	mode      string
	volume    float64
	cycles    int
	fades     bool
	start     int
	frames    int
	blockSize int
	rate      int
	bitDepth  int
	downbeat  int
	cache     bool

	sectionStart  int
	sectionLength int
}

func (cmd *renderCommand) Name() string {
	return "render"
}

func (cmd *renderCommand) Help() string {
	return "Render a wav file through the clip chain"
}

func (cmd *renderCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.in, "in", "", "input wav file (required)")
	fs.StringVar(&cmd.out, "out", "", "output wav file (required)")
	fs.Float64Var(&cmd.tempo, "tempo", 1, "tempo factor")
	fs.StringVar(&cmd.mode, "mode", stretch.Resample.String(), "tempo mode: resample or stretch")
	fs.Float64Var(&cmd.volume, "volume", 0, "volume in dB")
	fs.IntVar(&cmd.cycles, "loop", 0, "number of loop cycles, negative loops infinitely")
	fs.BoolVar(&cmd.fades, "fade", false, "fade material start and end")
	fs.IntVar(&cmd.start, "start", 0, "start frame, negative adds silence")
	fs.IntVar(&cmd.frames, "frames", 0, "number of frames to render, required for infinite material")
	fs.IntVar(&cmd.blockSize, "block", envInt(blockSizeEnv, 512), "block size in frames")
	fs.IntVar(&cmd.rate, "rate", 0, "output sample rate, native if zero")
	fs.IntVar(&cmd.bitDepth, "bits", envInt(bitDepthEnv, 16), "output bit depth")
	fs.IntVar(&cmd.downbeat, "downbeat", 0, "downbeat frame")
	fs.BoolVar(&cmd.cache, "cache", false, "cache material before render")
	fs.IntVar(&cmd.sectionStart, "section-start", 0, "first material frame of played section")
	fs.IntVar(&cmd.sectionLength, "section-length", 0, "length of played section in frames, zero plays until the end")
}

func (cmd *renderCommand) Validate() error {
	var missing []string
	if cmd.in == "" {
		missing = append(missing, "-in")
	}
	if cmd.out == "" {
		missing = append(missing, "-out")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required flags: %s", strings.Join(missing, ", "))
	}
	if cmd.blockSize <= 0 {
		return errors.New("block size must be positive")
	}
	if cmd.tempo <= 0 {
		return errors.New("tempo factor must be positive")
	}
	return nil
}

func (cmd *renderCommand) Run() error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	mode, err := stretch.ParseMode(cmd.mode)
	if err != nil {
		return err
	}
	src, info, err := wav.Load(cmd.in)
	if err != nil {
		return err
	}

	c := chain.New(src, chain.WithLogger(logger))
	if err := c.SetMode(mode); err != nil {
		return err
	}
	c.SetTempoFactor(cmd.tempo)
	c.SetVolume(cmd.volume)
	if cmd.cycles != 0 {
		c.SetLoopEnabled(true)
		if cmd.cycles > 0 {
			c.SetLoopBehavior(loop.UntilEndOfCycle(cmd.cycles - 1))
		}
	}
	if cmd.fades {
		c.SetAudioFadesEnabled(true)
		c.SetEnabledForStart(true)
		c.SetEnabledForEnd(true)
	}
	if cmd.downbeat != 0 {
		c.SetDownbeatEnabled(true)
		c.SetDownbeatFrame(cmd.downbeat)
	}
	if err := c.SetSection(cmd.sectionStart, cmd.sectionLength); err != nil {
		return err
	}
	if cmd.cache {
		c.EnableCache()
	}

	rate := cmd.rate
	if rate == 0 {
		rate = info.SampleRate
	}
	limit := cmd.frames
	if limit == 0 {
		if _, ok := c.FrameCount(); !ok {
			return errors.New("material is infinite, -frames flag is required")
		}
	}
	out := render(c, cmd.start, limit, cmd.blockSize, float64(rate))
	logger.Info(fmt.Sprintf("chain %v: rendered %d frames (%v)", c.ID(), out.Size(), signal.DurationOf(float64(rate), int64(out.Size()))))
	return wav.Save(cmd.out, out, rate, signal.BitDepth(cmd.bitDepth))
}

// render pulls blocks from the chain until limit frames are written or
// material ends. Zero limit renders until the end.
func render(c *chain.Chain, start, limit, blockSize int, rate float64) signal.Float64 {
	channels := c.ChannelCount()
	out := signal.EmptyFloat64(channels, 0)
	block := signal.EmptyFloat64(channels, blockSize)
	view := make(signal.Float64, 0, channels)
	general := &supply.GeneralInfo{
		BlockLength:     blockSize,
		OutputFrameRate: rate,
	}
	pos, written := start, 0
	for limit == 0 || written < limit {
		n := blockSize
		if limit > 0 {
			n = min(n, limit-written)
		}
		req := supply.AudioRequest{
			StartFrame:     pos,
			DestSampleRate: rate,
			Info: supply.RequestInfo{
				Requester: "render",
			},
			General: general,
		}
		res := c.SupplyAudio(&req, block.Window(view, 0, n))
		out = out.Append(block.Window(view, 0, res.NumFramesWritten))
		written += res.NumFramesWritten
		next, ok := res.Next()
		if !ok {
			break
		}
		pos = next
	}
	return out
}
