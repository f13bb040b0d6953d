package ingest

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
)

const containerPath = "META-INF/container.xml"

// commonCoverIDs are manifest ids publishers use for covers when the package
// metadata does not say which item is the cover.
var commonCoverIDs = []string{"cover-image", "cover", "Cover", "CoverImage", "coverimage"}

type containerDoc struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

type opfDoc struct {
	Metadata struct {
		Titles   []string  `xml:"title"`
		Creators []string  `xml:"creator"`
		Metas    []opfMeta `xml:"meta"`
	} `xml:"metadata"`
	Manifest struct {
		Items []manifestItem `xml:"item"`
	} `xml:"manifest"`
}

type opfMeta struct {
	Name    string `xml:"name,attr"`
	Content string `xml:"content,attr"`
}

type manifestItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

// book is an opened EPUB container.
type book struct {
	zr      *zip.ReadCloser
	opfPath string
	opf     opfDoc
}

func openBook(filePath string) (*book, error) {
	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("open container: %w", err)
	}

	b := &book{zr: zr}
	var container containerDoc
	if err := b.decodeXML(containerPath, &container); err != nil {
		zr.Close()
		return nil, err
	}
	if len(container.Rootfiles) == 0 || strings.TrimSpace(container.Rootfiles[0].FullPath) == "" {
		zr.Close()
		return nil, errors.New("container lists no package document")
	}

	b.opfPath = strings.TrimSpace(container.Rootfiles[0].FullPath)
	if err := b.decodeXML(b.opfPath, &b.opf); err != nil {
		zr.Close()
		return nil, err
	}
	return b, nil
}

func (b *book) Close() error {
	return b.zr.Close()
}

func (b *book) title() string {
	return firstNonEmpty(b.opf.Metadata.Titles)
}

func (b *book) author() string {
	return firstNonEmpty(b.opf.Metadata.Creators)
}

// coverItem finds the manifest item holding the cover image.
func (b *book) coverItem() (manifestItem, bool) {
	items := b.opf.Manifest.Items

	for _, meta := range b.opf.Metadata.Metas {
		if !strings.EqualFold(meta.Name, "cover") || meta.Content == "" {
			continue
		}
		for _, item := range items {
			if item.ID == meta.Content || item.Href == meta.Content {
				return item, true
			}
		}
	}

	for _, item := range items {
		for _, prop := range strings.Fields(item.Properties) {
			if prop == "cover-image" {
				return item, true
			}
		}
	}

	for _, id := range commonCoverIDs {
		for _, item := range items {
			if item.ID == id && isImageType(item.MediaType) {
				return item, true
			}
		}
	}

	for _, item := range items {
		if isImageType(item.MediaType) {
			return item, true
		}
	}
	return manifestItem{}, false
}

// readItem reads a manifest item. Hrefs are relative to the package document.
func (b *book) readItem(item manifestItem) ([]byte, error) {
	href := item.Href
	if unescaped, err := url.PathUnescape(href); err == nil {
		href = unescaped
	}
	return b.readFile(path.Join(path.Dir(b.opfPath), href))
}

func (b *book) readFile(name string) ([]byte, error) {
	f, err := b.zr.Open(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func (b *book) decodeXML(name string, v any) error {
	data, err := b.readFile(name)
	if err != nil {
		return err
	}
	if err := xml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func isImageType(mediaType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mediaType)), "image/")
}

// coverExt maps a cover media type to the file extension it is stored under.
func coverExt(mediaType, href string) string {
	switch strings.ToLower(strings.TrimSpace(mediaType)) {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	case "image/svg+xml":
		return "svg"
	}
	if ext := strings.ToLower(strings.TrimPrefix(path.Ext(href), ".")); ext != "" {
		return ext
	}
	return "jpg"
}

func firstNonEmpty(values []string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
