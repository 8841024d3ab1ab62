package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"

	"github.com/trezcool/masomo-resources/core/resource"
)

var (
	isTerminalFunc = term.IsTerminal                                                                 // mockable
	writeFileFunc  = func(path string, data []byte) error { return os.WriteFile(path, data, 0o644) } // mockable

	errHelp      = errors.New("help provided")
	errCancelled = errors.New("cancelled")
)

type commandLine struct {
	fetcher     resource.Fetcher
	saver       *resource.DirSaver
	autoLoad    bool
	autoCleanup bool
	out         io.Writer
	termFd      int
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  preview -name NAME [-o PATH] - fetch a resource and print its metadata (optionally write it to PATH)")
	fmt.Fprintln(cli.out, "  head -name NAME              - check whether a resource exists")
	fmt.Fprintln(cli.out, "  download -name NAME [-as AS] - download a resource into the download dir")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	previewCmd := flag.NewFlagSet("preview", flag.ContinueOnError)
	previewName := previewCmd.String("name", "", "Name of the resource.")
	previewOut := previewCmd.String("o", "", "Write the content to this path.")

	headCmd := flag.NewFlagSet("head", flag.ContinueOnError)
	headName := headCmd.String("name", "", "Name of the resource.")

	downloadCmd := flag.NewFlagSet("download", flag.ContinueOnError)
	downloadName := downloadCmd.String("name", "", "Name of the resource.")
	downloadAs := downloadCmd.String("as", "", "Save under this name instead of the server provided one.")

	for _, fs := range []*flag.FlagSet{previewCmd, headCmd, downloadCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "preview":
		if err := previewCmd.Parse(args[2:]); err != nil {
			return parseError(err)
		}
		if *previewName == "" {
			previewCmd.Usage()
			return errHelp
		}
		return cli.preview(ctx, *previewName, *previewOut)
	case "head":
		if err := headCmd.Parse(args[2:]); err != nil {
			return parseError(err)
		}
		if *headName == "" {
			headCmd.Usage()
			return errHelp
		}
		return cli.head(ctx, *headName)
	case "download":
		if err := downloadCmd.Parse(args[2:]); err != nil {
			return parseError(err)
		}
		if *downloadName == "" {
			downloadCmd.Usage()
			return errHelp
		}
		return cli.download(ctx, *downloadName, *downloadAs)
	default:
		cli.printUsage()
		return errHelp
	}
}

func parseError(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return errHelp
	}
	return err
}

func (cli *commandLine) preview(ctx context.Context, name, outPath string) error {
	m := resource.Bind(ctx, name, cli.fetcher, resource.Options{
		AutoLoad:    cli.autoLoad,
		AutoCleanup: cli.autoCleanup,
	})
	defer m.Close()

	if cli.autoLoad {
		m.Wait()
	} else if err := m.Preview(ctx); err != nil {
		return err
	}

	out := m.Output()
	switch out.State {
	case resource.StateLoaded:
	case resource.StateError:
		return errors.New(out.ErrorMessage)
	default:
		return errCancelled
	}

	fmt.Fprintf(cli.out, "name:   %s\n", out.ResolvedFileName)
	fmt.Fprintf(cli.out, "type:   %s\n", out.MimeType)
	fmt.Fprintf(cli.out, "size:   %d\n", out.SizeBytes)
	fmt.Fprintf(cli.out, "handle: %s\n", out.LocalHandleURI)

	if outPath != "" {
		if err := writeFileFunc(outPath, m.Blob()); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "written to %s\n", outPath)
	}
	return nil
}

func (cli *commandLine) head(ctx context.Context, name string) error {
	m := resource.NewManager(name, cli.fetcher, resource.Options{AutoCleanup: cli.autoCleanup})
	defer m.Close()

	res, err := m.CheckExists(ctx)
	if err != nil {
		return err
	}
	if !res.Exists {
		fmt.Fprintf(cli.out, "%s: not found\n", name)
		return nil
	}
	fmt.Fprintf(cli.out, "%s: exists\n", name)
	if res.SizeBytes != nil {
		fmt.Fprintf(cli.out, "size: %d\n", *res.SizeBytes)
	}
	if res.MimeType != nil {
		fmt.Fprintf(cli.out, "type: %s\n", *res.MimeType)
	}
	return nil
}

func (cli *commandLine) download(ctx context.Context, name, as string) error {
	bar := &progressBar{out: cli.out, name: name, enabled: isTerminalFunc(cli.termFd)}
	m := resource.NewManager(name, cli.fetcher, resource.Options{
		AutoCleanup: cli.autoCleanup,
		OnChange:    bar.render,
	})
	defer m.Close()

	res, err := m.Download(ctx, as)
	bar.done()
	if err != nil {
		return err
	}
	if !res.Success {
		return errCancelled
	}
	path := res.FinalName
	if cli.saver != nil {
		path = cli.saver.Path(res.FinalName)
	}
	fmt.Fprintf(cli.out, "saved %s (%d bytes)\n", path, res.SizeBytes)
	return nil
}

// progressBar redraws a single terminal line while a download is running.
type progressBar struct {
	out     io.Writer
	name    string
	enabled bool

	mu      sync.Mutex
	drawn   bool
	version uint64
}

func (b *progressBar) render(out resource.Output) {
	if !b.enabled {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if out.Version <= b.version {
		return
	}
	b.version = out.Version
	if out.State != resource.StateDownloading {
		return
	}
	fmt.Fprintf(b.out, "\r%s %3d%%", b.name, out.ProgressPercent)
	b.drawn = true
}

func (b *progressBar) done() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.drawn {
		fmt.Fprintln(b.out)
		b.drawn = false
	}
}
