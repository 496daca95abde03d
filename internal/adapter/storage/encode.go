package storage

import (
	"encoding/base64"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/launchdeck-platform/market-engine/internal/port"
)

// encodeFile 决定单个文件的传输编码：
// 文本扩展名且内容是合法 UTF-8 时明文，否则 base64。
func encodeFile(rel string, content []byte) port.DeployFile {
	ext := strings.ToLower(filepath.Ext(rel))
	if textExtensions[ext] && utf8.Valid(content) {
		return port.DeployFile{Path: rel, Data: string(content)}
	}
	return port.DeployFile{
		Path:     rel,
		Data:     base64.StdEncoding.EncodeToString(content),
		Encoding: "base64",
	}
}

const defaultIndexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>SaaS App</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            text-align: center;
            padding: 50px;
        }
        .container { max-width: 600px; margin: 0 auto; }
        h1 { color: #333; }
        p { color: #666; line-height: 1.6; }
    </style>
</head>
<body>
    <div class="container">
        <h1>SaaS Application</h1>
        <p>Your application has been successfully deployed!</p>
        <p>This is a default page. Upload your own index.html to customize.</p>
    </div>
</body>
</html>
`
