package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanSections_HeadingSectionRunsToNextSiblingHeading(t *testing.T) {
	text := "# Doc\n\n## Intro\n{: #intro}\nHello\n\n### Detail\nMore\n\n## Next\nOther\n"
	sections := ScanSections(text)

	require.Contains(t, sections, "intro")
	assert.Equal(t, "## Intro\n{: #intro}\nHello\n\n### Detail\nMore\n", sections["intro"])
}

func TestScanSections_HeadingSectionToEndOfText(t *testing.T) {
	sections := ScanSections("## Intro\n{: #intro}\nHello\n")
	assert.Equal(t, "## Intro\n{: #intro}\nHello\n", sections["intro"])
}

func TestScanSections_ParagraphSection(t *testing.T) {
	text := "First line\nsecond line\n{: #para .note}\n\nafter\n"
	sections := ScanSections(text)
	assert.Equal(t, "First line\nsecond line\n{: #para .note}\n", sections["para"])
}

func TestScanSections_FencedAttributeIsIgnored(t *testing.T) {
	text := "```\n{: #fake }\n```\n"
	assert.Empty(t, ScanSections(text))
}

func TestScanSections_FencedCodeBlockCapturedAsParagraph(t *testing.T) {
	text := "```\necho hi\n```\n{: #snippet}\n"
	sections := ScanSections(text)
	assert.Equal(t, "```\necho hi\n```\n{: #snippet}\n", sections["snippet"])
}

func TestScanSections_FencedHeadingDoesNotEndSection(t *testing.T) {
	text := "## A\n{: #a}\n```\n## not a heading\n```\ntext\n## B\n"
	sections := ScanSections(text)
	assert.Equal(t, "## A\n{: #a}\n```\n## not a heading\n```\ntext", sections["a"])
}

func TestScanSections_AttributeWithoutIDOrPendingIgnored(t *testing.T) {
	text := "{: #orphan}\n\nPara\n{: .class}\n"
	assert.Empty(t, ScanSections(text))
}

func TestScanSections_LeadingAttributeLineIsDropped(t *testing.T) {
	sections := ScanSections("Intro para\n\n{: .note}\nSome text\n{: #x}\n")
	assert.Equal(t, SectionMap{"x": "Some text\n{: #x}\n"}, sections)

	assert.Empty(t, ScanSections("{: #a}\n{: #b}\n"))
}

func TestScanSections_EmptyText(t *testing.T) {
	assert.Empty(t, ScanSections(""))
}

func TestScanSections_ParameterizedIDs(t *testing.T) {
	text := "## Intro\n{: #intro}\nBody\n"
	sections := ScanSections(text, WithParameterizedIDs())
	assert.Equal(t, "## Intro\n{: #"+FilenamePlaceholder+"-include-intro}\nBody\n", sections["intro"])
}
