// Command juleactl is the thin command-line client for a julea-go
// server: each subcommand dials once, issues one request, and prints
// the result.
package main

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/julea-project/julea-go/client"
	"github.com/julea-project/julea-go/transform"
	"github.com/julea-project/julea-go/wire"
)

var (
	serverAddr string
	namespace  string
	kindFlag   string
	modeFlag   string
	safetyFlag string
	writeSafety string
	offset     uint64
	length     uint64
	dataB64    string
)

var rootCmd = &cobra.Command{
	Use:   "juleactl",
	Short: "Talk to a julea-go server",
	Long: `
juleactl is a thin wire client for julea-go: each invocation dials a
server, issues one Create, Delete, Write, Read or Status request, and
exits.`,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&serverAddr, "server", "s", "127.0.0.1:4711", "Server address")
	pf.StringVarP(&namespace, "namespace", "n", "objects", "Object namespace")

	rootCmd.AddCommand(createCmd, deleteCmd, writeCmd, readCmd, statusCmd)

	createCmd.Flags().StringVar(&kindFlag, "kind", "none", "Transformation kind: none|xor|rle|lz4")
	createCmd.Flags().StringVar(&modeFlag, "mode", "server", "Transformation mode: client|transport|server")
	createCmd.Flags().StringVar(&safetyFlag, "safety", "storage", "Safety level: none|network|storage")

	for _, c := range []*cobra.Command{writeCmd, readCmd} {
		c.Flags().StringVar(&kindFlag, "kind", "none", "Transformation kind: none|xor|rle|lz4")
		c.Flags().StringVar(&modeFlag, "mode", "server", "Transformation mode: client|transport|server")
	}
	writeCmd.Flags().Uint64Var(&offset, "offset", 0, "Logical byte offset to write at")
	writeCmd.Flags().StringVar(&dataB64, "data-base64", "", "Base64-encoded bytes to write")
	writeCmd.Flags().StringVar(&writeSafety, "safety", "network", "Safety level: none|network|storage")

	readCmd.Flags().Uint64Var(&offset, "offset", 0, "Logical byte offset to read from")
	readCmd.Flags().Uint64Var(&length, "length", 0, "Number of bytes to read")

	deleteCmd.Flags().StringVar(&safetyFlag, "safety", "storage", "Safety level: none|network|storage")
}

func dial() (*client.Client, error) {
	return client.Dial(serverAddr)
}

func parseSafety(s string) (wire.Safety, error) {
	switch s {
	case "none":
		return wire.SafetyNone, nil
	case "network":
		return wire.SafetyNetwork, nil
	case "storage":
		return wire.SafetyStorage, nil
	default:
		return 0, fmt.Errorf("unknown safety level %q", s)
	}
}

var createCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create an object",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := transform.ParseKind(kindFlag)
		if err != nil {
			return err
		}
		mode, err := transform.ParseMode(modeFlag)
		if err != nil {
			return err
		}
		safety, err := parseSafety(safetyFlag)
		if err != nil {
			return err
		}
		c, err := dial()
		if err != nil {
			return err
		}
		defer c.Close()
		return c.Create(namespace, args[0], kind, mode, safety)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete an object",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		safety, err := parseSafety(safetyFlag)
		if err != nil {
			return err
		}
		c, err := dial()
		if err != nil {
			return err
		}
		defer c.Close()
		return c.Delete(namespace, args[0], safety)
	},
}

var writeCmd = &cobra.Command{
	Use:   "write NAME",
	Short: "Write bytes to an object at an offset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := transform.ParseKind(kindFlag)
		if err != nil {
			return err
		}
		mode, err := transform.ParseMode(modeFlag)
		if err != nil {
			return err
		}
		safety, err := parseSafety(writeSafety)
		if err != nil {
			return err
		}
		data, err := base64.StdEncoding.DecodeString(dataB64)
		if err != nil {
			return fmt.Errorf("decode --data-base64: %w", err)
		}
		c, err := dial()
		if err != nil {
			return err
		}
		defer c.Close()
		return c.Write(namespace, args[0], kind, mode, data, offset, safety)
	},
}

var readCmd = &cobra.Command{
	Use:   "read NAME",
	Short: "Read bytes from an object",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := transform.ParseKind(kindFlag)
		if err != nil {
			return err
		}
		mode, err := transform.ParseMode(modeFlag)
		if err != nil {
			return err
		}
		c, err := dial()
		if err != nil {
			return err
		}
		defer c.Close()
		data, err := c.Read(namespace, args[0], kind, mode, offset, length)
		if err != nil {
			return err
		}
		fmt.Println(base64.StdEncoding.EncodeToString(data))
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status NAME",
	Short: "Print an object's logical size",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dial()
		if err != nil {
			return err
		}
		defer c.Close()
		size, err := c.Status(namespace, args[0])
		if err != nil {
			return err
		}
		fmt.Println(size)
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
