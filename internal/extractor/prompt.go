package extractor

import "strings"

const extractionSystemPrompt = `你是一个小说知识库整理助手。从给定的正文片段中提取值得长期记录的知识条目，返回一个 JSON 数组。每个条目对象包含以下字段：

- "category"：取值为 "character"（人物）、"world"（世界观）、"plot"（情节）、"setting"（设定）、"other"（其他）之一
- "title"：条目标题，例如人物姓名、地点名、物品名（字符串）
- "keywords"：便于检索的关键词列表（字符串数组，最多 5 个）
- "content"：对该条目的完整描述，涵盖片段中出现的全部相关信息（字符串）

要求：
- 只提取具体的设定事实，不提取情绪描写或一次性的场景细节
- 同一个对象只输出一个条目，把相关信息合并进 content
- 如果片段中没有值得记录的内容，返回空数组 []

只回复 JSON 数组，不要输出其他文字。`

// buildChunkPrompt assembles the user turn for one chunk, with an optional
// chapter hint carried from the segmenter.
func buildChunkPrompt(chapter, content string) string {
	var sb strings.Builder
	if chapter != "" {
		sb.WriteString("当前章节：")
		sb.WriteString(chapter)
		sb.WriteString("\n\n")
	}
	sb.WriteString("正文片段：\n")
	sb.WriteString(content)
	return sb.String()
}
