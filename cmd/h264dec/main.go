/*
DESCRIPTION
  h264dec is a command line driver that decodes an Annex-B H.264
  elementary stream and reports the pictures the decoder bumps from the
  decoded picture buffer.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package main implements the h264dec command line tool.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/luuvish/h264dec/codec/h264/h264dec"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	input      = flag.String("input", "", "path to an Annex-B H.264 elementary stream")
	logPath    = flag.String("log", "", "path to a log file; rotated via lumberjack, empty disables rotation")
	verbose    = flag.Bool("v", false, "enable debug logging")
	maxRefOver = flag.Int("max-ref-frames", 0, "override the DPB size implied by the active SPS, 0 uses the SPS value")
)

func main() {
	flag.Parse()
	if *input == "" {
		fmt.Fprintln(os.Stderr, "h264dec: -input is required")
		os.Exit(2)
	}

	logger, err := newLogger(*logPath, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "h264dec: could not create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	data, err := os.ReadFile(*input)
	if err != nil {
		logger.Fatal("could not read input", zap.Error(err))
	}

	dec := h264dec.NewDecoder(h264dec.Config{
		Logger:                  logger,
		MaxNumRefFramesOverride: *maxRefOver,
	})

	nalCount, picCount := 0, 0
	for _, nal := range splitAnnexB(data) {
		pics, err := dec.Decode(nal)
		nalCount++
		if err != nil {
			logger.Warn("decode error", zap.Int("nal", nalCount), zap.Error(err))
			continue
		}
		picCount += len(pics)
		for _, pic := range pics {
			logger.Info("picture output",
				zap.Int("frame_num", pic.FrameNum),
				zap.Int("poc", pic.POC()),
			)
		}
	}

	fmt.Printf("decoded %d NAL units, output %d pictures\n", nalCount, picCount)
}

func newLogger(path string, verbose bool) (*zap.Logger, error) {
	level := zap.InfoLevel
	if verbose {
		level = zap.DebugLevel
	}

	if path == "" {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(level)
		return cfg.Build()
	}

	writer := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    50, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	encoder := zap.NewProductionEncoderConfig()
	encoder.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoder), zapcore.AddSync(writer), level)
	return zap.New(core), nil
}

// splitAnnexB splits an Annex-B byte stream into its constituent NAL units
// (start codes stripped, trailing_zero_8bits left untouched; the decoder's
// RBSP de-emulation handles any embedded emulation prevention bytes). This
// is glue for the CLI only; the decoder package itself never assumes a
// particular framing, per its documented scope.
func splitAnnexB(data []byte) [][]byte {
	var starts []int
	for i := 0; i+2 < len(data); i++ {
		if data[i] == 0 && data[i+1] == 0 && data[i+2] == 1 {
			starts = append(starts, i+3)
		}
	}
	var nals [][]byte
	for i, s := range starts {
		end := len(data)
		if i+1 < len(starts) {
			end = starts[i+1] - 3
			for end > s && data[end-1] == 0 {
				end--
			}
		}
		if end > s {
			nals = append(nals, data[s:end])
		}
	}
	return nals
}
