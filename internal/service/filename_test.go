package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecureFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My cool movie.mov", "My_cool_movie.mov"},
		{"../../../etc/passwd", "etc_passwd"},
		{"i contain cool ümläuts.txt", "i_contain_cool_umlauts.txt"},
		{"__filename__", "filename"},
		{"foo$&^*)bar", "foobar"},
		{"con.txt", "_con.txt"},
		{"..", ""},
		{"報告.pdf", "pdf"},
		{`C:\Users\me\report.pdf`, "C_Users_me_report.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SecureFilename(tt.in))
		})
	}
}

func TestAllowedFile(t *testing.T) {
	allowed := []string{"pdf", "png", "txt"}

	assert.True(t, allowedFile("report.pdf", allowed))
	assert.True(t, allowedFile("REPORT.PDF", allowed))
	assert.True(t, allowedFile("archive.tar.txt", allowed))
	assert.False(t, allowedFile("report.exe", allowed))
	assert.False(t, allowedFile("pdf", allowed))
	assert.False(t, allowedFile("report.", allowed))
}
