package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShorten(t *testing.T) {
	assert.Equal(t, "map/map.bmd", shorten("map/map.bmd", 20))
	assert.Equal(t, "..s/map.bmd", shorten("stage/maps/map.bmd", 11))
	assert.Len(t, []rune(shorten("ステージ/マップ/ファイル.bin", 10)), 10)
}

func TestProgress_Disabled(t *testing.T) {
	p := NewProgress("stage.szs", 3, false)
	assert.Nil(t, p.bar)

	p.Update(1, "scene.bin")
	assert.Empty(t, p.description)
	p.Finish()
	p.Finish()
}
