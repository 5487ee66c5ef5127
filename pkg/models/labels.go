package models

import (
	"golang.org/x/text/language"
)

// Labels holds the human-facing strings that end up in output files.
type Labels struct {
	InStock  string
	SoldOut  string
	Unknown  string
	AllItems string // category given to products from the global listing
}

var (
	englishLabels = Labels{
		InStock:  "In stock",
		SoldOut:  "Sold out",
		Unknown:  "Unknown",
		AllItems: "All Items",
	}
	chineseLabels = Labels{
		InStock:  "有库存",
		SoldOut:  "售罄",
		Unknown:  "未知",
		AllItems: "全部商品",
	}

	labelTags    = []language.Tag{language.English, language.Chinese}
	labelSets    = []Labels{englishLabels, chineseLabels}
	labelMatcher = language.NewMatcher(labelTags)
)

// LabelsFor picks the closest supported label set for a BCP 47 locale such as
// "en", "zh-CN" or "zh-Hans". Unparseable input falls back to English.
func LabelsFor(locale string) Labels {
	tag, err := language.Parse(locale)
	if err != nil {
		return englishLabels
	}
	_, idx, conf := labelMatcher.Match(tag)
	if conf == language.No {
		return englishLabels
	}
	return labelSets[idx]
}

// Stock renders an availability with this label set.
func (l Labels) Stock(a Availability) string {
	switch a {
	case InStock:
		return l.InStock
	case SoldOut:
		return l.SoldOut
	default:
		return l.Unknown
	}
}
