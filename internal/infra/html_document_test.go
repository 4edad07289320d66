package infra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const previewHTML = `<html><body>
<div class="preview-body">
  <p class="address">東京都渋谷区道玄坂1-2-3</p>
  <p class="station"> 渋谷駅 徒歩5分 </p>
  <ul class="job-type"><li>(1)ホールスタッフ</li><li></li><li>キッチン</li></ul>
  <p class="salary">時給1,200円〜 交通費支給</p>
</div>
</body></html>`

func TestHTMLDocument(t *testing.T) {
	doc, err := NewHTMLDocument(previewHTML)
	require.NoError(t, err)

	assert.Equal(t, []string{"(1)ホールスタッフ", "キッチン"}, doc.ExtractText(".job-type li"))
	assert.Equal(t, "渋谷駅 徒歩5分", doc.FirstText(".station"))
	assert.Equal(t, "", doc.FirstText(".missing"))
	assert.Equal(t, "", doc.FirstText(""))

	got, err := doc.ExtractTextByRegex(".salary", `時給[\d,]+円`)
	require.NoError(t, err)
	assert.Equal(t, []string{"時給1,200円"}, got)

	_, err = doc.ExtractTextByRegex(".salary", `(`)
	assert.Error(t, err)
}
