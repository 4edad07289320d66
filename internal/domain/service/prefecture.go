package service

import (
	"strings"

	"github.com/nrad-K/trend-crawler/internal/domain/model"
)

// Prefectureは都道府県と所属する地方区分です。
type Prefecture struct {
	Code   model.PrefectureCode
	Name   string
	Region string
}

// ShortNameは末尾の都・府・県を除いた名前を返します。北海道はそのままです。
func (p Prefecture) ShortName() string {
	for _, suffix := range []string{"都", "府", "県"} {
		if strings.HasSuffix(p.Name, suffix) {
			return strings.TrimSuffix(p.Name, suffix)
		}
	}
	return p.Name
}

var prefectures = []Prefecture{
	{model.Hokkaido, "北海道", "北海道"},
	{model.Aomori, "青森県", "東北"},
	{model.Iwate, "岩手県", "東北"},
	{model.Miyagi, "宮城県", "東北"},
	{model.Akita, "秋田県", "東北"},
	{model.Yamagata, "山形県", "東北"},
	{model.Fukushima, "福島県", "東北"},
	{model.Ibaraki, "茨城県", "関東"},
	{model.Tochigi, "栃木県", "関東"},
	{model.Gunma, "群馬県", "関東"},
	{model.Saitama, "埼玉県", "関東"},
	{model.Chiba, "千葉県", "関東"},
	{model.Tokyo, "東京都", "関東"},
	{model.Kanagawa, "神奈川県", "関東"},
	{model.Niigata, "新潟県", "中部"},
	{model.Toyama, "富山県", "中部"},
	{model.Ishikawa, "石川県", "中部"},
	{model.Fukui, "福井県", "中部"},
	{model.Yamanashi, "山梨県", "中部"},
	{model.Nagano, "長野県", "中部"},
	{model.Gifu, "岐阜県", "中部"},
	{model.Shizuoka, "静岡県", "中部"},
	{model.Aichi, "愛知県", "中部"},
	{model.Mie, "三重県", "近畿"},
	{model.Shiga, "滋賀県", "近畿"},
	{model.Kyoto, "京都府", "近畿"},
	{model.Osaka, "大阪府", "近畿"},
	{model.Hyogo, "兵庫県", "近畿"},
	{model.Nara, "奈良県", "近畿"},
	{model.Wakayama, "和歌山県", "近畿"},
	{model.Tottori, "鳥取県", "中国"},
	{model.Shimane, "島根県", "中国"},
	{model.Okayama, "岡山県", "中国"},
	{model.Hiroshima, "広島県", "中国"},
	{model.Yamaguchi, "山口県", "中国"},
	{model.Tokushima, "徳島県", "四国"},
	{model.Kagawa, "香川県", "四国"},
	{model.Ehime, "愛媛県", "四国"},
	{model.Kochi, "高知県", "四国"},
	{model.Fukuoka, "福岡県", "九州・沖縄"},
	{model.Saga, "佐賀県", "九州・沖縄"},
	{model.Nagasaki, "長崎県", "九州・沖縄"},
	{model.Kumamoto, "熊本県", "九州・沖縄"},
	{model.Oita, "大分県", "九州・沖縄"},
	{model.Miyazaki, "宮崎県", "九州・沖縄"},
	{model.Kagoshima, "鹿児島県", "九州・沖縄"},
	{model.Okinawa, "沖縄県", "九州・沖縄"},
}

// Prefecturesは47都道府県の一覧を返します。
func Prefectures() []Prefecture {
	return append([]Prefecture(nil), prefectures...)
}

// FindPrefectureは文字列の先頭にある都道府県を特定します。
// "東京都新宿区" や "東京" のような略称も受け付けます。
func FindPrefecture(text string) (Prefecture, bool) {
	s := strings.TrimSpace(NormalizeText(text))
	if s == "" {
		return Prefecture{}, false
	}
	for _, p := range prefectures {
		if strings.HasPrefix(s, p.Name) {
			return p, true
		}
	}
	// "京都" が "東京都" に含まれるため、略称は前方一致でのみ判定する
	for _, p := range prefectures {
		if strings.HasPrefix(s, p.ShortName()) {
			return p, true
		}
	}
	return Prefecture{}, false
}
