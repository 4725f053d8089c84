package rule

// Description documents one rule type for the desc command.
type Description struct {
	Type    Type
	Summary string
	Options string
}

// Descriptions lists every rule type in the order rule files usually use them.
var Descriptions = []Description{
	{TypeForbiddenTexts, "Flags the first literal keyword found on each line.", "keywords: [text...]"},
	{TypeForbiddenPatterns, "Flags the first regular expression matching each line.", "keywords: [regex...]"},
	{TypeCustom, "Runs a command per file; a non-zero exit is a violation carrying the command output.", "exec: \"cmd {script_dir}/check {file}\""},
	{TypeRequirePHPDoc, "Requires PHPDoc blocks on declarations.", "doc: {class|interface|trait|enum|function: public|all}"},
	{TypeRequireKotlinDoc, "Requires KDoc blocks on declarations.", "doc: {class|interface|object|enum_class|sealed_class|sealed_interface|data_class|value_class|annotation_class|typealias|function: public|all}"},
	{TypeRequireJavaDoc, "Requires Javadoc blocks on declarations.", "doc: {class|interface|enum|record|annotation|method: public|all}"},
	{TypeRequireRustDoc, "Requires rustdoc comments on items.", "doc: {struct|enum|trait|type_alias|union|fn|macro_rules|mod: public|all}"},
	{TypeRequireEnglishComment, "Flags comments containing Japanese text.", "comment: {lang: preset} or {lines: [..], blocks: [{start, end}]}"},
	{TypeRequireJapaneseComment, "Flags comments containing no Japanese text.", "comment: {lang: preset} or {lines: [..], blocks: [{start, end}]}"},
	{TypeRequirePHPUnitTest, "Requires a PHPUnit test whose path and namespace agree.", "test: {test_directory, source_directory, namespace_root, suffix, require: file_exists|all_public}"},
	{TypeRequireKotestTest, "Requires a Kotest test whose path and package agree.", "test: {test_directory, source_directory, namespace_root, suffix, require: file_exists|all_public}"},
	{TypeRequireJUnitTest, "Requires a JUnit test whose path and package agree.", "test: {test_directory, source_directory, namespace_root, suffix, require: file_exists|all_public}"},
	{TypeRequireRustTest, "Requires unit tests in the file and/or an integration test file.", "unit: {require: exists|all_public}, integration: {test_directory, source_directory, require}, suffix"},
	{TypeJapanesePHPUnitTestName, "Requires PHPUnit test method names in Japanese.", ""},
	{TypeJapaneseKotestTestName, "Requires Kotest test names in Japanese.", ""},
	{TypeJapaneseJUnitTestName, "Requires JUnit test names or display names in Japanese.", ""},
	{TypeJapaneseRustTestName, "Requires Rust test function names in Japanese.", ""},
}
