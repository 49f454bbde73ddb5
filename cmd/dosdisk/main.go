/*
   dos86 - Host-side disk utility.

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

// dosdisk reads and writes the emulator's persisted floppy image without
// booting the machine: list directories, extract and inject files, format.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"dos86/fs/fat12"
	"dos86/fs/store"
)

var diskPath string

func openFS(requireFormatted bool) (*fat12.Filesystem, error) {
	st, err := store.OpenFileStore(diskPath)
	if err != nil {
		return nil, err
	}
	fs := fat12.New(st)
	if requireFormatted && !fs.IsFormatted() {
		return nil, fmt.Errorf("%s: disk is not formatted (try: dosdisk format)", diskPath)
	}
	return fs, nil
}

// splitDOSPath turns DIR\SUB\NAME.EXT into components and a name.
func splitDOSPath(raw string) ([]string, string) {
	raw = strings.ReplaceAll(raw, "/", "\\")
	parts := []string{}
	for _, p := range strings.Split(raw, "\\") {
		if p != "" && p != "." {
			parts = append(parts, strings.ToUpper(p))
		}
	}
	if len(parts) == 0 {
		return nil, ""
	}
	return parts[:len(parts)-1], parts[len(parts)-1]
}

func main() {
	root := &cobra.Command{
		Use:           "dosdisk",
		Short:         "Inspect and edit a dos86 floppy image",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&diskPath, "disk", "d", "dos86.disk", "disk image file")

	root.AddCommand(infoCmd(), dirCmd(), typeCmd(), getCmd(), putCmd(), delCmd(), formatCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "dosdisk: "+err.Error())
		os.Exit(1)
	}
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show volume information",
		RunE: func(_ *cobra.Command, _ []string) error {
			fs, err := openFS(true)
			if err != nil {
				return err
			}
			fmt.Printf("Volume label:  %s\n", fs.VolumeLabel())
			fmt.Printf("Serial number: %04X-%04X\n", fs.Serial()>>16, fs.Serial()&0xFFFF)
			fmt.Printf("Free space:    %d bytes (%d clusters)\n",
				fs.FreeClusters()*fat12.SectorSize, fs.FreeClusters())
			return nil
		},
	}
}

func dirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dir [path]",
		Short: "List a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			fs, err := openFS(true)
			if err != nil {
				return err
			}
			var components []string
			if len(args) == 1 {
				dir, name := splitDOSPath(args[0])
				if name != "" {
					components = append(dir, name)
				}
			}
			entries, err := fs.ListDir(components)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				kind := fmt.Sprintf("%8d", entry.Size)
				if entry.IsDir() {
					kind = "   <DIR>"
				}
				fmt.Printf("%s  %-12s\n", kind, entry.Name)
			}
			return nil
		},
	}
}

func typeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "type <file>",
		Short: "Print a file to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			fs, err := openFS(true)
			if err != nil {
				return err
			}
			dir, name := splitDOSPath(args[0])
			data, err := fs.ReadFile(dir, name)
			if err != nil {
				return err
			}
			os.Stdout.Write(data)
			return nil
		},
	}
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <file> [hostfile]",
		Short: "Extract a file to the host",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			fs, err := openFS(true)
			if err != nil {
				return err
			}
			dir, name := splitDOSPath(args[0])
			data, err := fs.ReadFile(dir, name)
			if err != nil {
				return err
			}
			target := strings.ToLower(name)
			if len(args) == 2 {
				target = args[1]
			}
			return os.WriteFile(target, data, 0o644)
		},
	}
}

func putCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <hostfile> [dospath]",
		Short: "Inject a host file into the image",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			fs, err := openFS(true)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			target := filepath.Base(args[0])
			if len(args) == 2 {
				target = args[1]
			}
			dir, name := splitDOSPath(target)
			return fs.WriteFile(dir, name, data)
		},
	}
}

func delCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "del <file>",
		Short: "Delete a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			fs, err := openFS(true)
			if err != nil {
				return err
			}
			dir, name := splitDOSPath(args[0])
			found, err := fs.Delete(dir, name)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("%s: not found", args[0])
			}
			return nil
		},
	}
}

func formatCmd() *cobra.Command {
	var label string
	cmd := &cobra.Command{
		Use:   "format",
		Short: "Format the image, erasing everything",
		RunE: func(_ *cobra.Command, _ []string) error {
			fs, err := openFS(false)
			if err != nil {
				return err
			}
			fs.Format(label)
			fmt.Println("formatted " + diskPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&label, "label", "l", "DOS86", "volume label")
	return cmd
}
