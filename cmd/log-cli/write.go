package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeffrom/logrelay/client"
	"github.com/jeffrom/logrelay/config"
	"github.com/jeffrom/logrelay/fallback"
	"github.com/jeffrom/logrelay/internal"
)

var warnOut io.Writer = os.Stderr

var (
	inputPath  string
	noFallback bool
	showCount  bool
)

func init() {
	pflags := WriteCmd.Flags()
	pflags.StringVar(&inputPath, "input", "",
		"A file path to read records from, one per line")
	pflags.BoolVar(&noFallback, "no-fallback", false,
		"fail instead of writing to the system log when the relay is down")
	pflags.BoolVar(&showCount, "count", false,
		"print the number of records written to stderr")
}

var WriteCmd = &cobra.Command{
	Use:     "write [records]",
	Aliases: []string{"w"},
	Short:   "Write records to the log relay",
	Long:    `Each argument is sent as one record. Lines are read from stdin, or --input, when it isn't a terminal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		in, err := getInput(inputPath)
		if err != nil {
			return err
		}
		if in != nil {
			defer in.Close()
		}

		c := client.New(conf)
		if !noFallback {
			sink, err := fallback.New(conf)
			if err != nil {
				return err
			}
			defer func() { internal.LogError(sink.Close()) }()
			if _, err := c.WithFallback(sink); err != nil {
				return err
			}
		}
		defer func() { internal.LogError(c.Close()) }()

		n, err := doWrite(conf, c, args, in)
		if showCount {
			_, cerr := fmt.Fprintf(os.Stderr, "records: %d\n", n)
			internal.LogError(cerr)
		}
		return err
	},
}

// doWrite sends each argument, then each line of in, as a record. Empty
// records are skipped. It returns the number of records written.
func doWrite(conf *config.Config, w io.Writer, args []string, in io.Reader) (int, error) {
	var n int
	for _, arg := range args {
		if len(arg) == 0 {
			continue
		}
		if _, err := w.Write([]byte(arg)); err != nil {
			return n, err
		}
		n++
	}

	if in == nil {
		return n, nil
	}

	r := bufio.NewReaderSize(in, conf.MaxRecordSize)
	for {
		line, err := readRecord(r, conf.MaxRecordSize)
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if len(line) == 0 {
			continue
		}
		if _, err := w.Write(line); err != nil {
			return n, err
		}
		n++
	}
}

// readRecord reads one line from r. A line longer than limit is cut to limit
// bytes and the rest of it is discarded with a warning.
func readRecord(r *bufio.Reader, limit int) ([]byte, error) {
	b, isPrefix, err := r.ReadLine()
	if err != nil {
		return nil, err
	}
	line := internal.CopyBytes(b)
	if len(line) > limit {
		line = line[:limit]
	}

	var dropped int
	for isPrefix {
		b, isPrefix, err = r.ReadLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		dropped += len(b)
	}
	if dropped > 0 {
		_, werr := fmt.Fprintf(warnOut, "log-cli: line longer than %d bytes truncated, dropped %d bytes\n", limit, dropped)
		internal.LogError(werr)
	}
	return line, nil
}

// getInput returns the file at path, stdin when it is piped, or nil.
func getInput(path string) (io.ReadCloser, error) {
	if path != "" {
		return os.Open(path)
	}

	stat, err := os.Stdin.Stat()
	if err != nil {
		return nil, err
	}
	if stat.Mode()&os.ModeCharDevice != 0 {
		return nil, nil
	}
	return os.Stdin, nil
}
