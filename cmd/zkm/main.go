package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/0x0FACED/zkm/pkg/core/progress"
	"github.com/0x0FACED/zkm/pkg/core/v1/buffer"
	"github.com/0x0FACED/zkm/pkg/core/v1/crypto"
	"github.com/0x0FACED/zkm/pkg/core/v1/digest"
	"github.com/0x0FACED/zkm/pkg/core/v1/operation"
	"github.com/0x0FACED/zkm/pkg/core/v1/types"
	"github.com/0x0FACED/zkm/pkg/zkm"
	"github.com/0x0FACED/zlog"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

const (
	// chunk size for streaming sign/verify
	updateChunkSize = 64 * 1024
)

var logger *zlog.ZerologLogger
var rootCmd *cobra.Command

func main() {
	rootCmd = &cobra.Command{
		Use:   "zkm",
		Short: "zkm — a cli key store for keyed-hash (HMAC) operations",
	}

	logger, _ = zlog.NewZerologLogger(zlog.LoggerConfig{
		LogLevel: "info",
	})

	rootCmd.AddCommand(completionCmd())
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(keygenCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(rmCmd())
	rootCmd.AddCommand(signCmd())
	rootCmd.AddCommand(verifyCmd())
	rootCmd.AddCommand(headerCmd())
	rootCmd.AddCommand(exportCmd())

	if err := rootCmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("Error occured")
		os.Exit(1)
	}
}

func completionCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "completion [bash|zsh|fish|powershell]",
		Short:     "Generate shell completion script",
		Args:      cobra.MatchAll(cobra.ExactArgs(1)),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Run: func(cmd *cobra.Command, args []string) {
			switch args[0] {
			case "bash":
				rootCmd.GenBashCompletion(os.Stdout)
			case "zsh":
				rootCmd.GenZshCompletion(os.Stdout)
			case "fish":
				rootCmd.GenFishCompletion(os.Stdout, true)
			case "powershell":
				rootCmd.GenPowerShellCompletion(os.Stdout)
			}
		},
	}
}

func initCmd() *cobra.Command {
	var filename string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create new key store",
		RunE: func(cmd *cobra.Command, args []string) error {
			password := promptPassword("Enter password for store: ")
			path := filename + ".zkm"

			ks, err := zkm.Create(path, []byte(password))
			if err != nil {
				return err
			}
			defer ks.Close()

			logger.Info().Str("file", path).Msg("Store successfully created")
			return nil
		},
	}

	cmd.Flags().StringVar(&filename, "file", "", "Filename without extension (necessary)")
	cmd.MarkFlagRequired("file") //nolint:errcheck

	return cmd
}

func keygenCmd() *cobra.Command {
	var filename, name, algoName string
	var tagLength int
	var signOnly, verifyOnly bool

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate new mac key in the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			algo := digest.Parse(algoName)
			if algo == 0 {
				return fmt.Errorf("unknown digest algorithm: %s", algoName)
			}

			if tagLength == 0 {
				tagLength = algo.Size()
			}

			password := promptPassword("Enter password: ")
			path := filename + ".zkm"

			ks, err := zkm.Open(path, []byte(password))
			if err != nil {
				return err
			}
			defer ks.Close()

			purposes := purposesMask(signOnly, verifyOnly)

			meta, err := ks.GenerateKey(name, algo, purposes, tagLength)
			if err != nil {
				return err
			}

			logger.Info().
				Str("name", name).
				Str("algo", algo.String()).
				Int("tag_length", tagLength).
				Str("id", hex.EncodeToString(meta.ID[:])).
				Msg("Key generated")
			return nil
		},
	}

	cmd.Flags().StringVar(&filename, "file", "", "Filename without extension (necessary)")
	cmd.Flags().StringVar(&name, "name", "", "Key name (necessary)")
	cmd.Flags().StringVar(&algoName, "algo", "sha256", "Digest algorithm: sha224|sha256|sha384|sha512")
	cmd.Flags().IntVar(&tagLength, "tag-length", 0, "Default tag length in bytes (native digest size if 0)")
	cmd.Flags().BoolVar(&signOnly, "sign-only", false, "Allow only sign purpose")
	cmd.Flags().BoolVar(&verifyOnly, "verify-only", false, "Allow only verify purpose")
	cmd.MarkFlagRequired("file") //nolint:errcheck
	cmd.MarkFlagRequired("name") //nolint:errcheck

	return cmd
}

func importCmd() *cobra.Command {
	var filename, name, algoName, materialHex string
	var tagLength int
	var signOnly, verifyOnly bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import raw key material (hex) into the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			algo := digest.Parse(algoName)
			if algo == 0 {
				return fmt.Errorf("unknown digest algorithm: %s", algoName)
			}

			material, err := hex.DecodeString(materialHex)
			if err != nil {
				return fmt.Errorf("material must be hex encoded: %w", err)
			}

			if tagLength == 0 {
				tagLength = algo.Size()
			}

			password := promptPassword("Enter password: ")
			path := filename + ".zkm"

			ks, err := zkm.Open(path, []byte(password))
			if err != nil {
				return err
			}
			defer ks.Close()

			purposes := purposesMask(signOnly, verifyOnly)

			if _, err := ks.ImportKey(name, material, algo, purposes, tagLength); err != nil {
				return err
			}

			logger.Info().Str("name", name).Msg("Key imported")
			return nil
		},
	}

	cmd.Flags().StringVar(&filename, "file", "", "Filename without extension (necessary)")
	cmd.Flags().StringVar(&name, "name", "", "Key name (necessary)")
	cmd.Flags().StringVar(&algoName, "algo", "sha256", "Digest algorithm: sha224|sha256|sha384|sha512")
	cmd.Flags().StringVar(&materialHex, "material", "", "Hex encoded key material (necessary)")
	cmd.Flags().IntVar(&tagLength, "tag-length", 0, "Default tag length in bytes (native digest size if 0)")
	cmd.Flags().BoolVar(&signOnly, "sign-only", false, "Allow only sign purpose")
	cmd.Flags().BoolVar(&verifyOnly, "verify-only", false, "Allow only verify purpose")
	cmd.MarkFlagRequired("file")     //nolint:errcheck
	cmd.MarkFlagRequired("name")     //nolint:errcheck
	cmd.MarkFlagRequired("material") //nolint:errcheck

	return cmd
}

func listCmd() *cobra.Command {
	var filename string
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List keys info from store",
		RunE: func(cmd *cobra.Command, args []string) error {
			password := promptPassword("Enter password: ")
			path := filename + ".zkm"

			ks, err := zkm.Open(path, []byte(password))
			if err != nil {
				return err
			}
			defer ks.Close()

			metas := ks.Keys()
			if !all {
				filtered := metas[:0]
				for _, meta := range metas {
					if !meta.Deleted() {
						filtered = append(filtered, meta)
					}
				}
				metas = filtered
			}

			renderKeyList(metas)
			return nil
		},
	}

	cmd.Flags().StringVar(&filename, "file", "", "Filename without extension (necessary)")
	cmd.Flags().BoolVar(&all, "all", false, "Show all keys (include marked as deleted)")
	cmd.MarkFlagRequired("file") //nolint:errcheck

	return cmd
}

func rmCmd() *cobra.Command {
	var filename, name string
	var hard bool

	cmd := &cobra.Command{
		Use:   "rm",
		Short: "Delete key from store",
		RunE: func(cmd *cobra.Command, args []string) error {
			password := promptPassword("Enter password: ")
			path := filename + ".zkm"

			ks, err := zkm.Open(path, []byte(password))
			if err != nil {
				return err
			}
			defer ks.Close()

			if err := ks.DeleteKey(name, hard); err != nil {
				return err
			}

			logger.Info().Str("name", name).Bool("hard", hard).Msg("Key deleted")
			return nil
		},
	}

	cmd.Flags().StringVar(&filename, "file", "", "Filename without extension (necessary)")
	cmd.Flags().StringVar(&name, "name", "", "Key name (necessary)")
	cmd.Flags().BoolVar(&hard, "hard", false, "Scrub the sealed blob instead of soft delete")
	cmd.MarkFlagRequired("file") //nolint:errcheck
	cmd.MarkFlagRequired("name") //nolint:errcheck

	return cmd
}

func signCmd() *cobra.Command {
	var filename, name, inputPath string
	var tagLength int

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Compute mac tag over input file",
		RunE: func(cmd *cobra.Command, args []string) error {
			password := promptPassword("Enter password: ")
			path := filename + ".zkm"

			ks, err := zkm.Open(path, []byte(password))
			if err != nil {
				return err
			}
			defer ks.Close()

			op, err := ks.Dispatch(name, operation.PurposeSign, tagLength)
			if err != nil {
				return err
			}
			defer op.Release()

			if err := op.Begin(); err != nil {
				return err
			}

			if err := streamInput(op, inputPath); err != nil {
				return err
			}

			out := buffer.NewReserved(0)
			if err := op.Finish(buffer.New(nil), out); err != nil {
				return err
			}

			fmt.Println(hex.EncodeToString(out.Bytes()))
			return nil
		},
	}

	cmd.Flags().StringVar(&filename, "file", "", "Filename without extension (necessary)")
	cmd.Flags().StringVar(&name, "key", "", "Key name (necessary)")
	cmd.Flags().StringVar(&inputPath, "in", "", "Input file, '-' for stdin (necessary)")
	cmd.Flags().IntVar(&tagLength, "tag-length", 0, "Tag length in bytes (key default if 0)")
	cmd.MarkFlagRequired("file") //nolint:errcheck
	cmd.MarkFlagRequired("key")  //nolint:errcheck
	cmd.MarkFlagRequired("in")   //nolint:errcheck

	return cmd
}

func verifyCmd() *cobra.Command {
	var filename, name, inputPath, tagHex string
	var tagLength int

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify mac tag over input file",
		RunE: func(cmd *cobra.Command, args []string) error {
			candidate, err := hex.DecodeString(tagHex)
			if err != nil {
				return fmt.Errorf("tag must be hex encoded: %w", err)
			}

			password := promptPassword("Enter password: ")
			path := filename + ".zkm"

			ks, err := zkm.Open(path, []byte(password))
			if err != nil {
				return err
			}
			defer ks.Close()

			op, err := ks.Dispatch(name, operation.PurposeVerify, tagLength)
			if err != nil {
				return err
			}
			defer op.Release()

			if err := op.Begin(); err != nil {
				return err
			}

			if err := streamInput(op, inputPath); err != nil {
				return err
			}

			if err := op.Finish(buffer.New(candidate), buffer.NewReserved(0)); err != nil {
				return err
			}

			fmt.Println("OK")
			return nil
		},
	}

	cmd.Flags().StringVar(&filename, "file", "", "Filename without extension (necessary)")
	cmd.Flags().StringVar(&name, "key", "", "Key name (necessary)")
	cmd.Flags().StringVar(&inputPath, "in", "", "Input file, '-' for stdin (necessary)")
	cmd.Flags().StringVar(&tagHex, "tag", "", "Hex encoded candidate tag (necessary)")
	cmd.Flags().IntVar(&tagLength, "tag-length", 0, "Tag length in bytes (key default if 0)")
	cmd.MarkFlagRequired("file") //nolint:errcheck
	cmd.MarkFlagRequired("key")  //nolint:errcheck
	cmd.MarkFlagRequired("in")   //nolint:errcheck
	cmd.MarkFlagRequired("tag")  //nolint:errcheck

	return cmd
}

func headerCmd() *cobra.Command {
	var filename string

	cmd := &cobra.Command{
		Use:   "header",
		Short: "Show store header info",
		RunE: func(cmd *cobra.Command, args []string) error {
			password := promptPassword("Enter password: ")
			path := filename + ".zkm"

			ks, err := zkm.Open(path, []byte(password))
			if err != nil {
				return err
			}
			defer ks.Close()

			renderHeader(ks.Header())
			return nil
		},
	}

	cmd.Flags().StringVar(&filename, "file", "", "Filename without extension (necessary)")
	cmd.MarkFlagRequired("file") //nolint:errcheck

	return cmd
}

func exportCmd() *cobra.Command {
	var filename, outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export zstd-compressed copy of the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filename + ".zkm"

			src, err := os.Open(path)
			if err != nil {
				return err
			}
			defer src.Close()

			info, err := src.Stat()
			if err != nil {
				return err
			}

			dst, err := os.Create(outPath)
			if err != nil {
				return err
			}
			defer dst.Close()

			bar := progress.NewPrettyProgressBar("exporting store", info.Size())
			if err := exportCompressed(dst, io.TeeReader(src, bar)); err != nil {
				return err
			}

			logger.Info().Str("out", outPath).Msg("Store exported")
			return nil
		},
	}

	cmd.Flags().StringVar(&filename, "file", "", "Filename without extension (necessary)")
	cmd.Flags().StringVar(&outPath, "out", "", "Output path (necessary)")
	cmd.MarkFlagRequired("file") //nolint:errcheck
	cmd.MarkFlagRequired("out")  //nolint:errcheck

	return cmd
}

// streamInput drives op.Update over the input in chunks. With a
// regular file a progress bar is shown.
func streamInput(op operation.Operation, inputPath string) error {
	var src io.Reader
	var size int64 = -1

	if inputPath == "-" {
		src = os.Stdin
	} else {
		f, err := os.Open(inputPath)
		if err != nil {
			return err
		}
		defer f.Close()

		if info, err := f.Stat(); err == nil {
			size = info.Size()
		}
		src = f
	}

	if size >= 0 {
		bar := progress.NewPrettyProgressBar("hashing input", size)
		src = io.TeeReader(src, bar)
	}

	chunk := make([]byte, updateChunkSize)
	for {
		n, err := src.Read(chunk)
		if n > 0 {
			in := buffer.New(chunk[:n])
			consumed, uerr := op.Update(in)
			if uerr != nil {
				return uerr
			}
			in.Advance(consumed)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func exportCompressed(dst io.Writer, src io.Reader) error {
	if _, err := crypto.CompressStream(dst, src); err != nil {
		return err
	}
	return nil
}

func promptPassword(prompt string) string {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	password, _ := reader.ReadString('\n')
	return strings.TrimSpace(password)
}

func purposesMask(signOnly, verifyOnly bool) uint8 {
	switch {
	case signOnly && !verifyOnly:
		return types.CanSign
	case verifyOnly && !signOnly:
		return types.CanVerify
	default:
		return types.CanSign | types.CanVerify
	}
}

func renderKeyList(metas []types.KeyMeta) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatTitle
	t.Style().Format.HeaderAlign = text.AlignCenter
	t.Style().Format.RowAlign = text.AlignCenter
	t.Style().Color.Border = text.Colors{text.FgCyan}
	t.Style().Color.Separator = text.Colors{text.FgCyan}

	t.AppendHeader(table.Row{"Name", "ID", "Algo", "Tag Length", "Purposes", "Created at", "Flags"})

	for _, meta := range metas {
		t.AppendRow(table.Row{
			meta.NameString(),
			hex.EncodeToString(meta.ID[:8]),
			digest.Algorithm(meta.Algorithm).String(),
			meta.TagLength,
			purposesString(meta.Purposes),
			time.Unix(int64(meta.CreatedAt), 0).Format(time.DateTime),
			flagsString(meta.Flags),
		})
	}

	t.Render()
}

func renderHeader(h types.Header) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.Style().Color.Border = text.Colors{text.FgCyan}
	t.Style().Color.Separator = text.Colors{text.FgCyan}

	t.AppendHeader(table.Row{"Header field", "Value"})

	t.AppendRows([]table.Row{
		{"Version", h.Version},
		{"Flags", h.FlagsString()},
		{"Key count", h.KeyCount},
		{"Data size", h.DataSize},
		{"Created at", time.Unix(h.CreatedAt, 0).Format(time.DateTime)},
		{"Modified at", time.Unix(h.ModifiedAt, 0).Format(time.DateTime)},
		{"Owner ID", hex.EncodeToString(h.OwnerID[:])},
		{"Argon memory (log2)", h.ArgonMemoryLog2},
		{"Argon iterations", h.ArgonIterations},
		{"Argon parallelism", h.ArgonParallelism},
		{"Index table offset", h.IndexTableOffset},
	})

	t.Render()
}

func purposesString(mask uint8) string {
	var parts []string
	if mask&types.CanSign != 0 {
		parts = append(parts, "sign")
	}
	if mask&types.CanVerify != 0 {
		parts = append(parts, "verify")
	}
	return strings.Join(parts, "|")
}

func flagsString(flags uint8) string {
	var parts []string
	for flag, name := range types.FlagNames {
		if flags&flag != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}
