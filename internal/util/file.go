package util

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
)

// ComicInfo is the metadata file comic readers look for inside a CBZ.
type ComicInfo struct {
	XMLName   xml.Name `xml:"ComicInfo"`
	Series    string   `xml:"Series,omitempty"`
	Title     string   `xml:"Title,omitempty"`
	Web       string   `xml:"Web,omitempty"`
	PageCount int      `xml:"PageCount"`
}

// CreateCBZ writes pages, sorted by file name, to a CBZ at output. The
// archive is assembled next to output and renamed into place, so an
// interrupted run never leaves a truncated CBZ behind.
func CreateCBZ(pages []string, info ComicInfo, output string) (err error) {
	tmp := output + ".part"

	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("cbz: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	z := zip.NewWriter(out)

	pages = slices.Sorted(slices.Values(pages))
	for _, p := range pages {
		if err = addFileToZip(z, p); err != nil {
			_ = z.Close()
			_ = out.Close()
			return fmt.Errorf("cbz: %w", err)
		}
	}

	info.PageCount = len(pages)
	if err = addComicInfo(z, info); err != nil {
		_ = z.Close()
		_ = out.Close()
		return fmt.Errorf("cbz: %w", err)
	}

	if err = z.Close(); err != nil {
		_ = out.Close()
		return fmt.Errorf("cbz: %w", err)
	}
	if err = out.Close(); err != nil {
		return fmt.Errorf("cbz: %w", err)
	}

	return os.Rename(tmp, output)
}

func addComicInfo(z *zip.Writer, info ComicInfo) error {
	w, err := z.Create("ComicInfo.xml")
	if err != nil {
		return err
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	return enc.Encode(info)
}

func addFileToZip(z *zip.Writer, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(st)
	if err != nil {
		return err
	}

	header.Name = filepath.Base(file)
	// images are already compressed
	header.Method = zip.Store

	w, err := z.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(w, f)
	return err
}
