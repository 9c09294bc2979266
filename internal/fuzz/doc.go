// Package fuzztests houses Go fuzz harnesses that exercise the input side of
// the pipeline (document bytes -> astio -> lowering -> verification). Its
// goal is to smoke test robustness and guard against panics on arbitrary
// documents.
//
// Назначение: подавать произвольные байты в декодеры YAML/msgpack и, если
// документ разобрался, прогонять программу через lowering и verify.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
//
// Зависимости: internal/astio, internal/mir, internal/testkit.
package fuzztests
