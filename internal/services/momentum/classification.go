package momentum

// Classification buckets an asset by its composite momentum score. The
// allocator switches exhaustively over these values, so adding a bucket is a
// compile-visible change.
type Classification int

const (
	ClassificationQueda Classification = iota
	ClassificationLateral
	ClassificationAltaLeve
	ClassificationForteAlta
)

func (c Classification) String() string {
	switch c {
	case ClassificationForteAlta:
		return "FORTE_ALTA"
	case ClassificationAltaLeve:
		return "ALTA_LEVE"
	case ClassificationLateral:
		return "LATERAL"
	case ClassificationQueda:
		return "QUEDA"
	}
	return "UNKNOWN"
}

// TrendStatus is derived from the sign of the trend sub-term alone, not from
// the composite score. Trend and classification can legitimately disagree.
type TrendStatus int

const (
	TrendBaixa TrendStatus = iota
	TrendLateral
	TrendAlta
)

func (t TrendStatus) String() string {
	switch t {
	case TrendAlta:
		return "alta"
	case TrendBaixa:
		return "baixa"
	case TrendLateral:
		return "lateral"
	}
	return "unknown"
}
