/*
   dos86 - Main process.

   Copyright 2026, the dos86 authors

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   THE AUTHORS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

*/

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	getopt "github.com/pborman/getopt/v2"

	"dos86/console"
	"dos86/emu/session"
	"dos86/fs/store"
	"dos86/monitor"
	logger "dos86/util/logger"
)

func main() {
	optDisk := getopt.StringLong("disk", 'd', "dos86.disk", "Disk image file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optDebug := getopt.BoolLong("debug", 'v', "Log debug records")
	optMonitor := getopt.BoolLong("monitor", 'm', "Machine monitor instead of the console")
	optRun := getopt.StringLong("run", 'r', "", "Run a host .COM/.EXE image headless and exit")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var logSink io.Writer
	if *optLogFile != "" {
		file, err := os.Create(*optLogFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "cannot create log file: "+err.Error())
			os.Exit(1)
		}
		logSink = file
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	handler := logger.NewHandler(logSink, &slog.HandlerOptions{Level: programLevel}, *optDebug)
	slog.SetDefault(slog.New(handler))

	st, err := store.OpenFileStore(*optDisk)
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
	slog.Info("dos86 started", "disk", *optDisk)
	sess := session.New(st)

	switch {
	case *optRun != "":
		os.Exit(runHeadless(sess, *optRun))
	case *optMonitor:
		monitor.Run(sess)
	default:
		// The TUI owns the terminal; keep log echo off the screen.
		handler.SetQuiet(true)
		if err := console.Run(sess); err != nil {
			handler.SetQuiet(false)
			slog.Error("console failed: " + err.Error())
			os.Exit(1)
		}
	}
}

// runHeadless executes one image with no renderer. A program that blocks
// on the keyboard cannot finish here, so a key wait counts as a failure.
func runHeadless(sess *session.Session, path string) int {
	image, err := os.ReadFile(path)
	if err != nil {
		slog.Error(err.Error())
		return 1
	}
	name := strings.ToUpper(filepath.Base(path))
	if err := sess.Load(image, name, "", nil); err != nil {
		slog.Error(err.Error())
		return 1
	}
	state := sess.Run(100000)
	if state != session.Exited {
		slog.Error("program did not exit", "state", int(state))
		return 1
	}
	sess.EndProgram()
	return int(sess.ExitCode())
}
