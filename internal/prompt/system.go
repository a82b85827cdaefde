package prompt

// riskExtractionInstruction is the fixed head of the TypeRiskExtraction prompt.
// The JSON keys are part of the parsing contract in internal/analysis.
const riskExtractionInstruction = `あなたは聞き上手なリスクコンサルタントです。
以下の会話ログから、事業継続を脅かす可能性のある「経営リスク」を抽出し、指定されたJSONフォーマットで出力してください。
解決策の提案は不要です。リスクの客観的な抽出に集中してください。

# 抽出ルール
1. 「人」「物」「金」「情報」「責任」のいずれかの観点で、事業継続を本当に脅かすリスクだけを抽出すること
2. 会話ログに現れていないリスクを推測・創作しないこと
3. リスクの概要は簡潔な一文で記述すること
4. 必ず、そのリスクのきっかけとなった経営者の発言をそのまま引用すること
5. リスクが見つからない場合は "risks" を空の配列にすること
6. JSONオブジェクトのみを出力し、説明文は一切付けないこと

# 出力フォーマット（必ずこのJSON形式に従うこと）
{
  "risks": [
    {
      "risk_category": "（リスクの分類：人／物／金／情報／責任）",
      "risk_summary": "（抽出したリスクの概要）",
      "trigger_phrase": "（きっかけとなった経営者の発言）"
    }
  ]
}`

// solutionMappingInstruction is the fixed head of the TypeSolutionMapping prompt.
const solutionMappingInstruction = `あなたは商工会の共済制度に詳しい専門家です。
以下に提示される単一の「経営リスク」の概要文を読み、リストの中から最も適切な「解決策」を一つだけ選んで、その名称のみを返答してください。
名称はリストの表記と一字一句同じにし、引用符・説明・理由は付けないでください。`
