package main

import (
	"context"
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-resources/core"
)

// put uploads the file at path under name, or under the file's base name.
func (cli *commandLine) put(path, name string) error {
	name = core.FirstNonEmpty(name, filepath.Base(path))
	if err := core.ValidateVar(cli.validate, cli.translator, "name", name, "required,resname"); err != nil {
		return err
	}

	f, err := openFileFunc(path)
	if err != nil {
		return errors.Wrap(err, "opening file")
	}
	defer func() { _ = f.Close() }()

	info, err := cli.store.Put(context.Background(), name, f)
	if err != nil {
		return errors.Wrapf(err, "storing %q", name)
	}
	fmt.Fprintf(cli.out, "stored %s (%d bytes, %s)\n", info.Name, info.Size, info.MimeType)
	return nil
}

func (cli *commandLine) remove(name string) error {
	if err := cli.store.Delete(context.Background(), name); err != nil {
		return errors.Wrapf(err, "deleting %q", name)
	}
	fmt.Fprintf(cli.out, "deleted %s\n", name)
	return nil
}

func (cli *commandLine) list() error {
	infos, err := cli.store.List(context.Background())
	if err != nil {
		return errors.Wrap(err, "listing resources")
	}
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tTYPE\tMODIFIED")
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", info.Name, info.Size, info.MimeType, info.ModTime.Format(time.RFC3339))
	}
	return w.Flush()
}
