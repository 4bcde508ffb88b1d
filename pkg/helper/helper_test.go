package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAbsInt(t *testing.T) {
	assert.Equal(t, int64(7), AbsInt(7))
	assert.Equal(t, int64(7), AbsInt("7"))
	assert.Equal(t, int64(0), AbsInt(-3))
	assert.Equal(t, int64(0), AbsInt("junk"))
	assert.Equal(t, int64(0), AbsInt(nil))
}

func TestIsBadID(t *testing.T) {
	assert.False(t, IsBadID(5))
	assert.False(t, IsBadID("5"))
	assert.False(t, IsBadID(0))
	assert.True(t, IsBadID(nil))
	assert.True(t, IsBadID("junk"))
	assert.True(t, IsBadID(-1))
}

func TestToIDList(t *testing.T) {
	assert.Equal(t, []int64{1, 2, 3}, ToIDList([]any{1, "2", 3.0}))
	assert.Equal(t, []int64{1, 2}, ToIDList("1, 2"))
	assert.Equal(t, []int64{5}, ToIDList(5))
	assert.Equal(t, []int64{4}, ToIDList([]any{"junk", 0, 4}))
	assert.Equal(t, []int64{9}, ToIDList(-9), "sign is stripped, not dropped")
	assert.Nil(t, ToIDList(nil))
}

func TestToStringList(t *testing.T) {
	assert.Equal(t, []string{"post", "page"}, ToStringList("post, page"))
	assert.Equal(t, []string{"post"}, ToStringList("post"))
	assert.Equal(t, []string{"a", "b"}, ToStringList([]string{" a ", "b", ""}))
	assert.Nil(t, ToStringList(nil))
}

func TestDigits(t *testing.T) {
	assert.Equal(t, "202405", Digits("2024-05"))
	assert.Equal(t, "20240512", Digits(20240512))
	assert.Equal(t, "", Digits("abc"))
}

func TestSanitizeKey(t *testing.T) {
	assert.Equal(t, "my_post-type", SanitizeKey("My_Post-Type"))
	assert.Equal(t, "droptables", SanitizeKey("drop;tables!"))
	assert.Equal(t, "", SanitizeKey("!!"))
}

func TestSanitizeKeyList(t *testing.T) {
	assert.Equal(t, []string{"post"}, SanitizeKeyList([]string{"Post", "??"}))
}

func TestSanitizePagePath(t *testing.T) {
	assert.Equal(t, "parent/child", SanitizePagePath("/Parent/Child/"))
	assert.Equal(t, "", SanitizePagePath("//"))
}
