package epub

import (
	"encoding/xml"
	"fmt"
	"strings"
)

const (
	containerPath = "META-INF/container.xml"
	opfMediaType  = "application/oebps-package+xml"
	ncxMediaType  = "application/x-dtbncx+xml"
	cssMediaType  = "text/css"
)

// container mirrors META-INF/container.xml, which points at the OPF
// package document.
type container struct {
	XMLName   xml.Name `xml:"container"`
	Rootfiles []struct {
		FullPath  string `xml:"full-path,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"rootfiles>rootfile"`
}

// pkg mirrors the OPF package document: metadata, the manifest of all
// entries, and the spine giving reading order.
type pkg struct {
	XMLName  xml.Name `xml:"package"`
	Metadata struct {
		Title string `xml:"http://purl.org/dc/elements/1.1/ title"`
	} `xml:"metadata"`
	Manifest struct {
		Items []manifestItem `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		Itemrefs []struct {
			Idref string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`

	// Dir is the archive directory containing the OPF file; manifest
	// hrefs are relative to it.
	Dir string `xml:"-"`
}

type manifestItem struct {
	ID        string `xml:"id,attr"`
	Href      string `xml:"href,attr"`
	MediaType string `xml:"media-type,attr"`
}

// openPackage locates and parses the OPF package document of an archive.
func openPackage(a *Archive) (*pkg, error) {
	opfPath, err := findOPFPath(a)
	if err != nil {
		return nil, err
	}

	data, err := a.ReadBytes(opfPath)
	if err != nil {
		return nil, fmt.Errorf("reading package document: %w", err)
	}

	var p pkg
	if err := xml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing package document %s: %w", opfPath, err)
	}
	p.Dir = sectionDir(opfPath)
	return &p, nil
}

// findOPFPath reads container.xml for the package path, falling back to
// scanning the archive for a .opf entry when the container is missing or
// malformed. Plenty of hand-built EPUBs skip the container.
func findOPFPath(a *Archive) (string, error) {
	if data, err := a.ReadBytes(containerPath); err == nil {
		var c container
		if err := xml.Unmarshal(data, &c); err == nil {
			for _, rf := range c.Rootfiles {
				if rf.MediaType == opfMediaType && rf.FullPath != "" {
					return rf.FullPath, nil
				}
			}
			for _, rf := range c.Rootfiles {
				if rf.FullPath != "" {
					return rf.FullPath, nil
				}
			}
		}
	}

	for lower, actual := range a.entries {
		if strings.HasSuffix(lower, ".opf") {
			return actual, nil
		}
	}
	return "", fmt.Errorf("no package document found in archive")
}

// spineHrefs returns the OPF-relative hrefs of the spine sections in
// reading order. Itemrefs pointing at unknown manifest ids, style sheets,
// or navigation documents are skipped.
func (p *pkg) spineHrefs() []string {
	byID := make(map[string]manifestItem, len(p.Manifest.Items))
	for _, item := range p.Manifest.Items {
		byID[item.ID] = item
	}

	hrefs := make([]string, 0, len(p.Spine.Itemrefs))
	for _, ref := range p.Spine.Itemrefs {
		item, ok := byID[ref.Idref]
		if !ok || item.Href == "" {
			continue
		}
		switch item.MediaType {
		case ncxMediaType, cssMediaType:
			continue
		}
		hrefs = append(hrefs, item.Href)
	}
	return hrefs
}
