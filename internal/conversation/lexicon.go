package conversation

// KeywordGroup maps a label to the keywords that signal it.
type KeywordGroup struct {
	Label    string
	Keywords []string
}

// Lexicon holds the keyword tables used by the analyzer.
// Group order is significant: it decides output order and tie-breaking.
type Lexicon struct {
	Categories []KeywordGroup
	Intents    []KeywordGroup
	Emotions   []KeywordGroup

	FollowUpMarkers   []string
	DetailMarkers     []string
	ProblemMarkers    []string
	UnresolvedMarkers []string
	ResolvedMarkers   []string

	// IntentExpansions rewrites intent labels into search phrases.
	IntentExpansions map[string]string

	NegativeEmotions []string
	PositiveEmotions []string
}

// DefaultLexicon returns the Korean insurance lexicon.
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		Categories: []KeywordGroup{
			{Label: "자동차보험", Keywords: []string{"자동차", "차량", "운전", "사고", "충돌", "접촉", "주행", "운전자"}},
			{Label: "건강보험", Keywords: []string{"건강", "질병", "상해", "치료", "입원", "수술", "의료비", "병원"}},
			{Label: "화재보험", Keywords: []string{"화재", "재물", "건물", "주택", "화재사고", "불", "연기"}},
			{Label: "여행보험", Keywords: []string{"여행", "해외", "국내여행", "휴대품", "도난", "분실"}},
			{Label: "생명보험", Keywords: []string{"생명", "사망", "암", "중대질병", "진단", "수술"}},
			{Label: "배상책임", Keywords: []string{"배상", "책임", "손해", "피해", "법률", "소송"}},
		},
		Intents: []KeywordGroup{
			{Label: "가입문의", Keywords: []string{"가입", "신청", "계약", "등록", "시작"}},
			{Label: "보상문의", Keywords: []string{"보상", "보험금", "청구", "지급", "받을", "처리"}},
			{Label: "변경문의", Keywords: []string{"변경", "수정", "갱신", "연장", "취소", "해지"}},
			{Label: "조회문의", Keywords: []string{"조회", "확인", "상태", "내역", "정보", "현황"}},
			{Label: "문제해결", Keywords: []string{"문제", "오류", "안됨", "안되", "실패", "에러"}},
		},
		Emotions: []KeywordGroup{
			{Label: "긴급", Keywords: []string{"긴급", "급함", "빨리", "즉시", "당장", "응급"}},
			{Label: "불만", Keywords: []string{"불만", "화남", "짜증", "답답", "실망", "최악"}},
			{Label: "불안", Keywords: []string{"불안", "걱정", "두려움", "염려", "근심", "우려"}},
			{Label: "만족", Keywords: []string{"만족", "좋음", "감사", "고마움", "훌륭", "완벽"}},
		},
		FollowUpMarkers:   []string{"그럼", "그러면", "그런데", "추가로", "또", "더"},
		DetailMarkers:     []string{"자세히", "구체적으로", "정확히", "어떻게", "방법"},
		ProblemMarkers:    []string{"문제", "안됨", "오류", "실패", "도움"},
		UnresolvedMarkers: []string{"문제", "안됨", "오류", "실패", "어려움"},
		ResolvedMarkers:   []string{"해결", "처리", "완료", "가능"},
		IntentExpansions: map[string]string{
			"가입문의": "가입 신청",
			"보상문의": "보험금 청구",
			"변경문의": "계약 변경",
			"조회문의": "정보 확인",
			"문제해결": "문제 해결",
		},
		NegativeEmotions: []string{"불만", "불안"},
		PositiveEmotions: []string{"만족"},
	}
}
